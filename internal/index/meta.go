package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// collectionMeta is the sidecar record that makes a persisted collection
// portable: reopening the directory later needs the dimension and provider
// mode to validate the active session against it.
type collectionMeta struct {
	Collection    string `yaml:"collection"`
	Dimension     int    `yaml:"dimension"`
	EmbeddingMode string `yaml:"embedding_mode"`
	EntryCount    int    `yaml:"entry_count"`
	DocumentID    string `yaml:"document_id"`
	SourceName    string `yaml:"source_name"`
	CreatedAt     string `yaml:"created_at"`
}

func metaPath(persistDir, collectionName string) string {
	return filepath.Join(persistDir, collectionName+".meta.yaml")
}

func writeMeta(persistDir, collectionName string, meta collectionMeta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath(persistDir, collectionName), data, 0o644)
}

func readMeta(persistDir, collectionName string) (collectionMeta, error) {
	var meta collectionMeta
	data, err := os.ReadFile(metaPath(persistDir, collectionName))
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse collection metadata: %w", err)
	}
	return meta, nil
}

// builds tracks in-flight builds per (collectionName, persistDir).
var builds sync.Map

func buildKey(collectionName, persistDir string) string {
	return persistDir + "\x00" + collectionName
}

func lockBuild(key string) bool {
	_, inFlight := builds.LoadOrStore(key, struct{}{})
	return !inFlight
}

func unlockBuild(key string) {
	builds.Delete(key)
}
