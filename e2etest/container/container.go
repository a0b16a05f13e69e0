package container

import (
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/testutil"
)

const (
	User     = "user"
	Password = "password"
)

// Manager is a wrapper around all Docker instances, and the Docker API.
// It provides utilities to run and interact with all Docker containers used within e2e testing.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources map[string]*dockertest.Resource
}

// NewManager creates a new Manager instance and initializes
// all Docker specific utilities. Returns an error if initialization fails.
func NewManager(t *testing.T) *Manager {
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	pool.MaxWait = 2 * time.Minute

	return &Manager{
		cfg:       NewImageConfig(),
		pool:      pool,
		resources: make(map[string]*dockertest.Resource),
	}
}

func (m *Manager) Pool() *dockertest.Pool {
	return m.pool
}

func (m *Manager) run(t *testing.T, name string, opts *dockertest.RunOptions) *dockertest.Resource {
	suffix, err := testutil.RandomAlphaNum(4)
	require.NoError(t, err)
	opts.Name = fmt.Sprintf("%s-e2e-%s", name, suffix)

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)

	m.resources[name] = resource
	return resource
}

// RunMongo starts a MongoDB container and returns its mongodb:// address
func (m *Manager) RunMongo(t *testing.T) string {
	resource := m.run(t, "mongo", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + User,
			"MONGO_INITDB_ROOT_PASSWORD=" + Password,
		},
	})
	return fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp"))
}

// RunRabbitMQ starts a RabbitMQ container and returns its host:port
func (m *Manager) RunRabbitMQ(t *testing.T) string {
	resource := m.run(t, "rabbitmq", &dockertest.RunOptions{
		Repository: m.cfg.RabbitMQRepository,
		Tag:        m.cfg.RabbitMQVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + User,
			"RABBITMQ_DEFAULT_PASS=" + Password,
		},
	})
	return fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp"))
}

// ClearResources removes all outstanding Docker resources created by the Manager.
func (m *Manager) ClearResources() error {
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return err
		}
	}
	return nil
}
