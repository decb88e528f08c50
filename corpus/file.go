package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/jembertrip/core"
)

// FileLoader 从离线导出的文件加载语料，支持 JSON 与 YAML。
// 文件内容是目的地记录数组，每条记录带 embedding。
type FileLoader struct {
	Path string
}

func (l *FileLoader) Name() string { return "file" }

func (l *FileLoader) Load(_ context.Context) ([]*core.Destination, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var records []core.DestinationRecord
	switch strings.ToLower(filepath.Ext(l.Path)) {
	case ".json":
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported corpus file type: %s", l.Path)
	}

	return recordsToDestinations(records), nil
}

func recordsToDestinations(records []core.DestinationRecord) []*core.Destination {
	out := make([]*core.Destination, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToDestination())
	}
	return out
}

func destinationsToRecords(dests []*core.Destination) []core.DestinationRecord {
	out := make([]core.DestinationRecord, 0, len(dests))
	for _, d := range dests {
		out = append(out, d.ToRecord())
	}
	return out
}
