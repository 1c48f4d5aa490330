//go:build unix

package compose

import "golang.org/x/sys/unix"

// mmapRW creates (or truncates) path to size bytes and maps it read-write
// and shared, so writes land directly on disk without a final encode pass
// over the whole canvas.
func mmapRW(path string, size int) ([]byte, func() error, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, nil, err
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, nil, err
	}
	closer := func() error {
		syncErr := unix.Msync(data, unix.MS_SYNC)
		unmapErr := unix.Munmap(data)
		closeErr := unix.Close(fd)
		if syncErr != nil {
			return syncErr
		}
		if unmapErr != nil {
			return unmapErr
		}
		return closeErr
	}
	return data, closer, nil
}
