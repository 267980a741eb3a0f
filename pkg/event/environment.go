package event

// Environment exposes the resolved configuration properties of an application.
type Environment interface {
	// Get returns the value of key and whether it is set.
	Get(key string) (string, bool)

	// Set assigns key. Later calls win.
	Set(key, value string)

	// Keys returns the property keys in sorted order.
	Keys() []string

	// Profiles returns the active profiles.
	Profiles() []string
}
