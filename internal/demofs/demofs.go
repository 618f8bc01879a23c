// Package demofs is a minimal in-memory MountService used by
// vfsproviderd's "run" command to exercise the request coordinator end
// to end without a real native filesystem behind it.
package demofs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/marmos91/vfsprovider/internal/logger"
	vfserrors "github.com/marmos91/vfsprovider/pkg/errors"
	"github.com/marmos91/vfsprovider/pkg/vfsprovider"
)

type node struct {
	meta     vfsprovider.EntryMetadata
	content  []byte
	children map[string]*node
}

type openFile struct {
	node *node
	mode vfsprovider.OpenMode
}

// Service is a MountService backed by a fixed in-memory directory tree,
// one per mounted file system id. It is safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	manager   *vfsprovider.RequestManager
	provider  *vfsprovider.Provider
	mounted   map[string]*node
	openFiles map[uint32]*openFile
}

// New creates an empty Service. Mount populates each file system id's
// tree with a fixed demo layout the first time it is mounted.
func New() *Service {
	return &Service{
		mounted:   make(map[string]*node),
		openFiles: make(map[uint32]*openFile),
	}
}

// Mount implements vfsprovider.MountService. It wires provider's event
// handler slots to this service, builds a small demo tree for
// fileSystemID, and resolves the deferred mount handle.
func (s *Service) Mount(opts vfsprovider.MountOptions, manager *vfsprovider.RequestManager, provider *vfsprovider.Provider) error {
	s.mu.Lock()
	s.manager = manager
	s.provider = provider
	if _, exists := s.mounted[opts.FileSystemID()]; exists {
		s.mu.Unlock()
		return vfserrors.Newf(vfserrors.ErrInvalidArgument, "file system %q already mounted", opts.FileSystemID())
	}
	s.mounted[opts.FileSystemID()] = defaultTree()
	s.mu.Unlock()

	provider.Handlers = vfsprovider.HandlerSlots{
		OnUnmountRequested:       s.handleUnmount,
		OnGetMetadataRequested:   s.handleGetMetadata,
		OnReadDirectoryRequested: s.handleReadDirectory,
		OnOpenFileRequested:      s.handleOpenFile,
		OnCloseFileRequested:     s.handleCloseFile,
		OnReadFileRequested:      s.handleReadFile,
		OnAbortRequested:         s.handleAbort,
	}

	logCtx := logger.WithContext(context.Background(), logger.NewLogContext(opts.RequestID(), opts.FileSystemID()).WithKind("mount"))
	logger.InfoCtx(logCtx, "demofs: mounted", logger.FileSystemID(opts.FileSystemID()), slog.String("displayName", opts.DisplayName))
	provider.OnSuccess(opts.RequestID(), nil, false)
	return nil
}

// Unmount implements vfsprovider.MountService.
func (s *Service) Unmount(opts vfsprovider.UnmountOptions, provider *vfsprovider.Provider) error {
	s.mu.Lock()
	if _, ok := s.mounted[opts.FileSystemID()]; !ok {
		s.mu.Unlock()
		return vfserrors.Newf(vfserrors.ErrInvalidArgument, "file system %q not mounted", opts.FileSystemID())
	}
	delete(s.mounted, opts.FileSystemID())
	s.mu.Unlock()

	logCtx := logger.WithContext(context.Background(), logger.NewLogContext(opts.RequestID(), opts.FileSystemID()).WithKind("unmount"))
	logger.InfoCtx(logCtx, "demofs: unmounted", logger.FileSystemID(opts.FileSystemID()))
	provider.OnSuccess(opts.RequestID(), nil, false)
	return nil
}

func defaultTree() *node {
	readme := &node{meta: vfsprovider.EntryMetadata{
		Name:             "README.txt",
		Size:             28,
		ModificationTime: time.Unix(1700000000, 0),
		MimeType:         "text/plain",
	}, content: []byte("hello from the demo provider")}

	root := &node{
		meta:     vfsprovider.EntryMetadata{IsDirectory: true, Name: "/"},
		children: map[string]*node{"README.txt": readme},
	}
	return root
}

func (s *Service) lookup(fsID, path string) (*node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.mounted[fsID]
	if !ok {
		return nil, false
	}
	if path == "" || path == "/" {
		return root, true
	}
	child, ok := root.children[path]
	return child, ok
}

func (s *Service) handleGetMetadata(event *vfsprovider.Event) {
	opts := event.Options.(vfsprovider.GetMetadataOptions)
	n, ok := s.lookup(opts.FileSystemID(), opts.EntryPath)
	if !ok {
		_ = event.Error(errorCodeNotFound)
		return
	}
	_ = event.Success(vfsprovider.MetadataValue{Metadata: n.meta}, false)
}

func (s *Service) handleReadDirectory(event *vfsprovider.Event) {
	opts := event.Options.(vfsprovider.ReadDirectoryOptions)
	n, ok := s.lookup(opts.FileSystemID(), opts.DirectoryPath)
	if !ok || !n.meta.IsDirectory {
		_ = event.Error(errorCodeNotFound)
		return
	}

	entries := make([]vfsprovider.EntryMetadata, 0, len(n.children))
	for _, child := range n.children {
		entries = append(entries, child.meta)
	}
	_ = event.Success(vfsprovider.ReadDirectoryValue{Entries: entries}, false)
}

func (s *Service) handleOpenFile(event *vfsprovider.Event) {
	opts := event.Options.(vfsprovider.OpenFileOptions)
	n, ok := s.lookup(opts.FileSystemID(), opts.FilePath)
	if !ok || n.meta.IsDirectory {
		_ = event.Error(errorCodeNotFound)
		return
	}

	// Keyed by the manager-assigned request id (event.RequestID), the
	// same id the caller receives back from CreateRequest and must pass
	// as OpenRequestID on subsequent ReadFile/CloseFile calls — not
	// opts.RequestID(), which only reflects whatever the caller supplied
	// at options-construction time.
	s.mu.Lock()
	s.openFiles[event.RequestID] = &openFile{node: n, mode: opts.Mode}
	s.mu.Unlock()

	_ = event.Success(vfsprovider.NewUnitValue(vfsprovider.RequestOpenFile), false)
}

func (s *Service) handleReadFile(event *vfsprovider.Event) {
	opts := event.Options.(vfsprovider.ReadFileOptions)

	s.mu.Lock()
	of, ok := s.openFiles[opts.OpenRequestID]
	s.mu.Unlock()
	if !ok {
		_ = event.Error(errorCodeNotFound)
		return
	}

	data := of.node.content
	start := opts.Offset
	if start > uint64(len(data)) {
		start = uint64(len(data))
	}
	end := start + opts.Length
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	_ = event.Success(vfsprovider.ReadFileValue{Data: data[start:end]}, false)
}

func (s *Service) handleCloseFile(event *vfsprovider.Event) {
	opts := event.Options.(vfsprovider.CloseFileOptions)
	s.mu.Lock()
	delete(s.openFiles, opts.OpenRequestID)
	s.mu.Unlock()
	_ = event.Success(vfsprovider.NewUnitValue(vfsprovider.RequestCloseFile), false)
}

func (s *Service) handleUnmount(event *vfsprovider.Event) {
	opts := event.Options.(vfsprovider.UnmountOptions)
	s.mu.Lock()
	delete(s.mounted, opts.FileSystemID())
	s.mu.Unlock()
	_ = event.Success(vfsprovider.NewUnitValue(vfsprovider.RequestUnmount), false)
}

func (s *Service) handleAbort(event *vfsprovider.Event) {
	_ = event.Success(vfsprovider.NewUnitValue(vfsprovider.RequestAbort), false)
}

const errorCodeNotFound uint32 = 1000
