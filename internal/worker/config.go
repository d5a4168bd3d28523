package worker

const (
	defaultNumWorkers = 4
	defaultQueueSize  = 1024
)

type Config struct {
	NumWorkers int `mapstructure:"num_workers"`
	// QueueSize is the buffer of the in-memory queue.
	QueueSize int `mapstructure:"queue_size"`
}

func (c Config) withDefaults() Config {
	if c.NumWorkers <= 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	return c
}
