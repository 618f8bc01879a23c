package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marmos91/vfsprovider/internal/logger"
	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
	"github.com/marmos91/vfsprovider/pkg/vfsprovider"
)

// requestResult is the synchronous view of one CreateRequest's
// eventual completion, used only to linearize the demo script; real
// consumers never block like this.
type requestResult struct {
	requestID uint32
	value     vfsprovider.RequestValue
	errorCode uint32
	err       error
}

func submitAndWait(manager *vfsprovider.RequestManager, kind vfsprovider.RequestKind, opts vfsprovider.RequestOptions) requestResult {
	done := make(chan requestResult, 1)
	requestID, err := manager.CreateRequest(kind, opts, vfsprovider.CompletionCallback{
		OnSuccess: func(requestID uint32, value vfsprovider.RequestValue) {
			done <- requestResult{requestID: requestID, value: value}
		},
		OnError: func(requestID uint32, errorCode uint32) {
			done <- requestResult{requestID: requestID, errorCode: errorCode}
		},
	})
	if err != nil {
		return requestResult{err: err}
	}
	result := <-done
	result.requestID = requestID
	return result
}

// runDemoSequence drives one mount through directory listing, file
// open/read/close, and unmount, logging each step. fileSystemID is
// fixed for the demo harness.
func runDemoSequence(provider *vfsprovider.Provider) error {
	const fileSystemID = "demo-fs"
	fsLogCtx := logger.WithContext(context.Background(), logger.NewLogContext(0, fileSystemID))

	logger.InfoCtx(fsLogCtx, "demo: mounting")
	if err := provider.Mount(vfsprovider.MountRequest{
		FileSystemID: fileSystemID,
		DisplayName:  "Demo Filesystem",
		Writable:     false,
	}).Wait(); err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	manager := provider.Manager()

	listing := submitAndWait(manager, vfsprovider.RequestReadDirectory, vfsprovider.NewReadDirectoryOptions(fileSystemID, "/", 0))
	if err := listing.err; err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	if listing.errorCode != 0 {
		return fmt.Errorf("read directory: provider error code %d", listing.errorCode)
	}
	dir := listing.value.(vfsprovider.ReadDirectoryValue)
	listLogCtx := logger.WithContext(context.Background(), logger.NewLogContext(listing.requestID, fileSystemID).WithKind(vfsprovider.RequestReadDirectory.String()))
	for _, entry := range dir.Entries {
		logger.InfoCtx(listLogCtx, "demo: directory entry",
			slog.String("name", entry.Name), slog.Bool("isDirectory", entry.IsDirectory), slog.Uint64("size", entry.Size))
	}
	if len(dir.Entries) == 0 {
		return vfserrors.New(vfserrors.ErrNotFound, "demo tree is unexpectedly empty")
	}
	target := dir.Entries[0]

	opened := submitAndWait(manager, vfsprovider.RequestOpenFile, vfsprovider.NewOpenFileOptions(fileSystemID, target.Name, vfsprovider.OpenRead, 0))
	if err := opened.err; err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	if opened.errorCode != 0 {
		return fmt.Errorf("open file: provider error code %d", opened.errorCode)
	}
	// opened.requestID is what ReadFile/CloseFile reference as
	// OpenRequestID: the open request's own id, not a separately
	// allocated file handle.
	openRequestID := opened.requestID

	read := submitAndWait(manager, vfsprovider.RequestReadFile, vfsprovider.NewReadFileOptions(fileSystemID, openRequestID, 0, target.Size, 0))
	if err := read.err; err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if read.errorCode != 0 {
		return fmt.Errorf("read file: provider error code %d", read.errorCode)
	}
	data := read.value.(vfsprovider.ReadFileValue)
	readLogCtx := logger.WithContext(context.Background(), logger.NewLogContext(read.requestID, fileSystemID).WithKind(vfsprovider.RequestReadFile.String()))
	logger.InfoCtx(readLogCtx, "demo: read file", slog.String("name", target.Name), slog.Int("bytes", len(data.Data)))

	closeResult := submitAndWait(manager, vfsprovider.RequestCloseFile, vfsprovider.NewCloseFileOptions(fileSystemID, openRequestID, 0))
	if err := closeResult.err; err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if closeResult.errorCode != 0 {
		return fmt.Errorf("close file: provider error code %d", closeResult.errorCode)
	}

	logger.InfoCtx(fsLogCtx, "demo: unmounting")
	if err := provider.Unmount(vfsprovider.UnmountRequest{FileSystemID: fileSystemID}).Wait(); err != nil {
		return fmt.Errorf("unmount: %w", err)
	}

	return nil
}
