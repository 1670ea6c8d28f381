//go:build !linux

package embed

import "os"

func adviseSequential(*os.File) error { return nil }
