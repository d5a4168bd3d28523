// Package testingh starts throwaway docker containers for integration
// tests.
package testingh

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
)

var hostName = os.Getenv("OVERRIDE_HOSTNAME")

func init() {
	const defaultHostName = "localhost"

	if hostName == "" {
		hostName = defaultHostName
	}
}

type Container struct {
	resource *dockertest.Resource
}

func (c *Container) Purge() error {
	return c.resource.Close()
}

type image struct {
	repository    string
	tag           string
	containerPort docker.Port
	env           []string
	cmd           func(hostPort int) []string
}

// run starts the container with containerPort bound to a free host port and
// retries connectFn with exponential backoff until the service inside
// accepts connections.
func run(s image, connectFn func(connURL string) error) (*Container, error) {
	hostPort, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free host port: %w", err)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	opts := &dockertest.RunOptions{
		Repository: s.repository,
		Tag:        s.tag,
		Env:        s.env,
		Auth: docker.AuthConfiguration{
			Username: os.Getenv("ARTIFACTORY_USER"),
			Password: os.Getenv("ARTIFACTORY_PWD"),
		},
		PortBindings: map[docker.Port][]docker.PortBinding{
			s.containerPort: {{
				HostIP:   hostName,
				HostPort: strconv.Itoa(hostPort),
			}},
		},
	}
	if s.cmd != nil {
		opts.Cmd = s.cmd(hostPort)
	}

	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not create a container: %w", err)
	}

	container := &Container{
		resource: resource,
	}
	addr := fmt.Sprintf("%s:%s", hostName, resource.GetPort(string(s.containerPort)))
	if err := pool.Retry(func() error {
		return connectFn(addr)
	}); err != nil {
		_ = container.Purge()
		return nil, fmt.Errorf("could not connect to %s: %w", s.repository, err)
	}

	return container, nil
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
