package docker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeJSONLines decodes `--format '{{json .}}'` output: one JSON object per
// line, blank lines skipped. A line that fails to decode fails the whole call
// with ErrParse so a listing is never silently incomplete.
func DecodeJSONLines(r io.Reader) ([]map[string]any, error) {
	var records []map[string]any

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrParse, line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read docker output: %w", err)
	}

	return records, nil
}

// str pulls a string field out of a decoded CLI record.
func str(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

// ContainerFromRecord maps one `docker ps` JSON record to a summary.
func ContainerFromRecord(record map[string]any) ContainerSummary {
	return ContainerSummary{
		ID:         str(record, "ID"),
		Name:       str(record, "Names"),
		Status:     str(record, "Status"),
		State:      str(record, "State"),
		Image:      str(record, "Image"),
		Created:    str(record, "CreatedAt"),
		RunningFor: str(record, "RunningFor"),
		Ports:      str(record, "Ports"),
	}
}

// ImageFromRecord maps one `docker images` JSON record to a summary.
func ImageFromRecord(record map[string]any) ImageSummary {
	return ImageSummary{
		ID:        str(record, "ID"),
		ImageName: []string{str(record, "Repository") + ":" + str(record, "Tag")},
		Size:      str(record, "Size"),
		Created:   str(record, "CreatedAt"),
	}
}

// VolumeFromRecord maps one `docker volume ls` JSON record to a summary.
func VolumeFromRecord(record map[string]any) VolumeSummary {
	return VolumeSummary{
		Name:       str(record, "Name"),
		Driver:     str(record, "Driver"),
		Mountpoint: str(record, "Mountpoint"),
		Labels:     str(record, "Labels"),
	}
}
