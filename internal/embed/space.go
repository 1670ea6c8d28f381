package embed

import "github.com/shirou/gopsutil/v3/disk"

// freeSpace reports the bytes available to unprivileged users on the volume
// holding dir.
var freeSpace = func(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
