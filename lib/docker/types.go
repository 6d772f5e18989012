package docker

// ContainerSummary is the flat projection of one `docker ps` line.
// Remote hosts fill only the fields their command emits; the zero values
// serialize as empty strings, matching the narrower remote listing.
type ContainerSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	State      string `json:"state,omitempty"`
	Health     string `json:"health,omitempty"`
	Image      string `json:"image"`
	Created    string `json:"created,omitempty"`
	RunningFor string `json:"running_for,omitempty"`
	Ports      string `json:"ports,omitempty"`
}

// ImageSummary is the flat projection of one `docker images` line.
type ImageSummary struct {
	ID        string   `json:"id"`
	ImageName []string `json:"image_name"`
	Size      string   `json:"size_mb"`
	Created   string   `json:"created,omitempty"`
}

// VolumeSummary is the flat projection of one `docker volume ls` line.
type VolumeSummary struct {
	Name       string `json:"name"`
	Driver     string `json:"driver"`
	Mountpoint string `json:"mountpoint"`
	Labels     string `json:"labels,omitempty"`
}

// RunOptions control how a container is started from an image.
// The container always runs detached.
type RunOptions struct {
	Name     string `json:"name,omitempty"`     // optional container name
	Platform string `json:"platform,omitempty"` // optional platform, e.g. "linux/amd64"
}
