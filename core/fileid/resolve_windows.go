//go:build windows

package fileid

import (
	"bitrot-detector/core/paths"

	"golang.org/x/sys/windows"
)

type osResolver struct{}

// Resolve opens path without requesting any access rights and reads the
// volume serial number and file index from the handle.
func (osResolver) Resolve(path string) (Key, error) {
	p, err := windows.UTF16PtrFromString(paths.Long(path))
	if err != nil {
		return Key{}, unavailable(path, err)
	}

	h, err := windows.CreateFile(
		p,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return Key{}, unavailable(path, err)
	}
	defer windows.CloseHandle(h)

	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return Key{}, unavailable(path, err)
	}

	return Key{
		Volume: uint64(info.VolumeSerialNumber),
		FileID: uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
	}, nil
}
