//go:build e2e

package e2etest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	queueConfig "github.com/babylonlabs-io/staking-queue-client/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/e2etest/container"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/api"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/queue"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/services"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

var (
	eventuallyWaitTimeOut = 20 * time.Second
	eventuallyPollTime    = 250 * time.Millisecond
)

const (
	custodyAccount = "custody.testnet"
	adminAccount   = "admin.testnet"
)

type TestManager struct {
	Config  *config.Config
	Gateway *FakeGateway
	Service *services.Service
	API     *httptest.Server

	manager  *container.Manager
	db       *db.Database
	consumer *queue.QueueManager
	events   <-chan amqp.Delivery
}

// StartManager brings up MongoDB and RabbitMQ containers and runs the full
// service stack against them and a fake gateway
func StartManager(t *testing.T) *TestManager {
	ctx := context.Background()
	manager := container.NewManager(t)
	t.Cleanup(func() {
		require.NoError(t, manager.ClearResources())
	})

	gateway := NewFakeGateway(t)
	cfg := defaultConfig(gateway.URL(), manager.RunMongo(t), manager.RunRabbitMQ(t))
	require.NoError(t, cfg.Validate())

	err := manager.Pool().Retry(func() error {
		setupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return model.Setup(setupCtx, &cfg.Db)
	})
	require.NoError(t, err)

	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)

	var qm *queue.QueueManager
	err = manager.Pool().Retry(func() error {
		var qErr error
		qm, qErr = queue.NewQueueManager(cfg.Queue)
		return qErr
	})
	require.NoError(t, err)

	client := assetclient.NewClientWithMetrics(assetclient.NewClient(&cfg.Gateway, &cfg.Contract))
	service, err := services.NewService(cfg, db.NewDbWithMetrics(dbClient), client, client, client, qm)
	require.NoError(t, err)

	apiServer := httptest.NewServer(api.New(cfg, service, dbClient).Handler())

	tm := &TestManager{
		Config:   cfg,
		Gateway:  gateway,
		Service:  service,
		API:      apiServer,
		manager:  manager,
		db:       dbClient,
		consumer: qm,
	}
	tm.events = tm.subscribe(t)

	t.Cleanup(func() {
		apiServer.Close()
		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		require.NoError(t, service.WaitForConfirmations(waitCtx))
		require.NoError(t, qm.Stop())
		require.NoError(t, dbClient.Close(ctx))
	})
	return tm
}

func defaultConfig(gatewayURL, mongoAddress, rabbitAddress string) *config.Config {
	return &config.Config{
		Db: config.DbConfig{
			Backend:            config.DbBackendMongo,
			Username:           container.User,
			Password:           container.Password,
			DbName:             "nft-staking-e2e",
			Address:            mongoAddress,
			MaxPaginationLimit: 10,
		},
		Contract: config.ContractConfig{
			NftContractID:  "nft.testnet",
			FtContractID:   "reward.testnet",
			CustodyAccount: custodyAccount,
			AdminAccount:   adminAccount,
			RewardRate:     "1000",
		},
		Gateway: config.GatewayConfig{
			Endpoint:      gatewayURL,
			Timeout:       time.Second,
			CallTimeout:   time.Second,
			MaxRetryTimes: 3,
			RetryInterval: 50 * time.Millisecond,
		},
		Budget: *config.DefaultBudgetConfig(),
		Poller: config.PollerConfig{
			ReconcilePollingInterval: time.Second,
			ReconcileGracePeriod:     2 * time.Second,
			InFlightStakesLimit:      10,
		},
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
			IdleTimeout:  10 * time.Second,
			WaitTimeout:  5 * time.Second,
		},
		Queue: &queueConfig.QueueConfig{
			QueueUser:              container.User,
			QueuePassword:          container.Password,
			Url:                    rabbitAddress,
			QueueProcessingTimeout: 5 * time.Second,
			MsgMaxRetryAttempts:    3,
			ReQueueDelayTime:       time.Second,
			QueueType:              "quorum",
		},
		Metrics: config.MetricsConfig{
			Host: "127.0.0.1",
			Port: 2112,
		},
	}
}

// subscribe consumes the stake event queue with a separate connection
func (tm *TestManager) subscribe(t *testing.T) <-chan amqp.Delivery {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", container.User, container.Password, tm.Config.Queue.Url))
	require.NoError(t, err)
	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() {
		ch.Close()
		conn.Close()
	})

	deliveries, err := ch.Consume(queue.StakeEventQueueName, "", true, false, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

// NextEvent waits for the next published stake event
func (tm *TestManager) NextEvent(t *testing.T) *types.StakeEvent {
	t.Helper()
	select {
	case delivery := <-tm.events:
		var ev types.StakeEvent
		require.NoError(t, json.Unmarshal(delivery.Body, &ev))
		return &ev
	case <-time.After(eventuallyWaitTimeOut):
		require.FailNow(t, "no stake event published")
		return nil
	}
}

func (tm *TestManager) Do(t *testing.T, method, path, caller, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, tm.API.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (tm *TestManager) Record(t *testing.T, owner, assetID string) (*model.StakeRecordDocument, error) {
	t.Helper()
	return tm.db.GetStake(context.Background(), owner, assetID)
}
