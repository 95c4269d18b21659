// Package layer merges configuration sources in precedence order.
//
// Each source contributes a nested map. Later layers override earlier
// ones key by key, with nested maps merged recursively.
package layer

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceDefaults represents built-in default configuration.
	SourceDefaults Source = iota
	// SourceFile represents a configuration file.
	SourceFile
	// SourceEnv represents PICOROPE_ environment variables.
	SourceEnv
	// SourceFlags represents command-line overrides.
	SourceFlags
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceFlags:
		return "flags"
	default:
		return "unknown"
	}
}

// Layer is a single configuration source.
type Layer struct {
	Source Source

	// Path is the file path for SourceFile layers.
	Path string

	Data map[string]any
}

// New creates a layer holding data.
func New(source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{Source: source, Data: data}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Source: l.Source,
		Path:   l.Path,
		Data:   cloneMap(l.Data),
	}
}

// Merge combines layers into a fresh map. Layers are applied in argument
// order, so the last one wins. Nil layers are skipped and inputs are never
// modified.
func Merge(layers ...*Layer) map[string]any {
	result := make(map[string]any)
	for _, l := range layers {
		if l == nil {
			continue
		}
		result = DeepMerge(result, l.Data)
	}
	return result
}

// Origin reports the source of the last layer that sets path, or false when
// no layer does.
func Origin(path string, layers ...*Layer) (Source, bool) {
	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i] == nil {
			continue
		}
		if _, ok := GetByPath(layers[i].Data, path); ok {
			return layers[i].Source, true
		}
	}
	return 0, false
}
