package ports

// Frontend is a long-running way of feeding emails into the tracker service
type Frontend interface {
	// Name identifies the frontend in logs
	Name() string

	// Start starts the frontend without blocking
	Start() error

	// Stop stops the frontend and waits for in-flight work
	Stop() error
}
