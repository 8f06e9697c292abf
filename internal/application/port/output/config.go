package output

// ConfigPort reads flat key/value settings such as environment variables.
type ConfigPort interface {
	Get(key string) string
	GetWithDefault(key, defaultValue string) string
	GetBool(key string, defaultValue bool) bool
	GetInt(key string, defaultValue int) int
	GetFloat(key string, defaultValue float64) float64
}
