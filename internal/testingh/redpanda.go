package testingh

import "fmt"

// NewRedpanda starts a single-node Redpanda broker.
func NewRedpanda(connectFn func(connURL string) error) (*Container, error) {
	return run(image{
		repository:    "redpandadata/redpanda",
		tag:           "latest",
		containerPort: "9092/tcp",
		cmd: func(hostPort int) []string {
			return []string{
				"redpanda start",
				"--overprovisioned",
				"--smp 1",
				"--memory 1G",
				"--reserve-memory 0M",
				"--node-id 0",
				"--check=false",
				fmt.Sprintf("--advertise-kafka-addr %s:%v", hostName, hostPort),
			}
		},
	}, connectFn)
}
