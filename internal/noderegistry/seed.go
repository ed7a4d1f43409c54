package noderegistry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile mirrors the teacher's config.GameServerEntry static-list idiom:
// a flat YAML list of known endpoints, used to seed the registry at
// startup since spec.md is silent on how nodes are discovered.
type seedFile struct {
	Nodes []seedEntry `yaml:"nodes"`
}

type seedEntry struct {
	NodeID  uint32 `yaml:"node_id"`
	Address string `yaml:"address"`
}

// LoadSeed reads a YAML node list (nodes.yaml) into Endpoints. A missing
// file yields an empty, non-error result: the registry simply starts with
// no known nodes.
func LoadSeed(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading node seed %s: %w", path, err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing node seed %s: %w", path, err)
	}

	out := make([]Endpoint, 0, len(f.Nodes))
	for _, e := range f.Nodes {
		out = append(out, Endpoint{NodeID: e.NodeID, Address: e.Address})
	}
	return out, nil
}
