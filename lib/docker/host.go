package docker

import (
	"context"
	"io"
)

// Host is the uniform adapter over a docker control plane, implemented by the
// local engine (SDK + docker CLI) and by the SSH-backed remote client.
//
// A Host is acquired per request and released with Close when the request is
// done; handles are never pooled or shared across requests.
type Host interface {
	ListContainers(ctx context.Context) ([]ContainerSummary, error)
	InspectContainer(ctx context.Context, id string) (map[string]any, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RestartContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string, force bool) error

	ListImages(ctx context.Context) ([]ImageSummary, error)
	RemoveImage(ctx context.Context, ref string, force bool) error
	// RunImage starts a detached container from ref and returns the new
	// container's short (12 character) id.
	RunImage(ctx context.Context, ref string, opts RunOptions) (string, error)

	ListVolumes(ctx context.Context) ([]VolumeSummary, error)
	RemoveVolume(ctx context.Context, name string, force bool) error

	// FollowLogs follows the container's stdout/stderr, starting with the
	// last 25 lines. The stream is unbounded; Close releases the source.
	FollowLogs(ctx context.Context, id string) (io.ReadCloser, error)
	// FollowFile follows a file path inside the container (tail -n 25 -f).
	FollowFile(ctx context.Context, id, path string) (io.ReadCloser, error)

	// SaveImage streams the serialized representation of one image
	// (`docker save` output, an uncompressed tar).
	SaveImage(ctx context.Context, ref string) (io.ReadCloser, error)
	// ExportRefs lists the references to use for a bulk export: tags where
	// present, short ids for untagged images. ErrNotFound when the host has
	// no exportable images.
	ExportRefs(ctx context.Context) ([]string, error)
	// SaveImages streams a single uncompressed tar containing all refs.
	SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error)

	Close() error
}
