package scene

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// SensorUpdateHandler is called when a sensor-update message is received.
// Parameters: event, error. A malformed payload is reported with a nil event.
type SensorUpdateHandler func(ev *SensorUpdate, err error)

// SecurityHandler is called when the security system status changes
type SecurityHandler func(status SecurityStatus)

// MQTTClient manages the MQTT connection and subscriptions for sensor data
type MQTTClient struct {
	client          mqtt.Client
	config          *Config
	sensorHandler   SensorUpdateHandler
	securityHandler SecurityHandler
	isConnected     bool
	mu              sync.RWMutex
}

// InitMQTT initializes an MQTT client with the provided configuration.
// If neither MQTT_BROKER nor config.MQTT.Broker is set, MQTT is disabled
// and this returns nil.
func InitMQTT(config *Config, handler SensorUpdateHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, nil
	}

	if config == nil || config.MQTT.SensorTopic == "" {
		return nil, fmt.Errorf("MQTT enabled but no sensor topic configured")
	}

	client := &MQTTClient{
		config:        config,
		sensorHandler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "hometwin"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	// Connection settings
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // Preserve subscriptions on reconnect
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	// Connect asynchronously with retry
	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		log.Printf("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect is called when the MQTT connection is established
func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Println("MQTT connected, subscribing to sensor topics...")
	c.setConnected(true)

	topic := c.config.MQTT.SensorTopic
	log.Printf("Subscribing to %s for sensor updates", topic)
	token := client.Subscribe(topic, 0, c.handleSensorMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("Error subscribing to %s: %v", topic, token.Error())
	} else {
		log.Printf("Successfully subscribed to %s", topic)
	}

	if secTopic := c.config.MQTT.SecurityTopic; secTopic != "" {
		log.Printf("Subscribing to %s for security status", secTopic)
		secToken := client.Subscribe(secTopic, 0, c.handleSecurityMessage)
		if secToken.WaitTimeout(5*time.Second) && secToken.Error() != nil {
			log.Printf("Error subscribing to %s: %v", secTopic, secToken.Error())
		} else {
			log.Printf("Successfully subscribed to %s", secTopic)
		}
	}
}

// onConnectionLost is called when the MQTT connection is lost
// Auto-reconnect is enabled, so this is typically a transient event
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

// onReconnecting is called when the client attempts to reconnect
func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("MQTT reconnecting...")
}

// handleSensorMessage decodes a sensor-update payload and forwards it
func (c *MQTTClient) handleSensorMessage(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	log.Printf("Received sensor update (topic: %s, size: %d bytes)", msg.Topic(), len(payload))

	ev, err := ParseSensorUpdate(payload)
	if err != nil {
		log.Printf("Error decoding sensor update: %v", err)
		if handler := c.getSensorHandler(); handler != nil {
			handler(nil, err)
		}
		return
	}

	if handler := c.getSensorHandler(); handler != nil {
		handler(ev, nil)
	}
}

// handleSecurityMessage decodes a security status payload. Payloads arrive
// either as {"status": "..."} or as a bare string.
func (c *MQTTClient) handleSecurityMessage(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()

	var status SecurityStatus
	if err := json.Unmarshal(payload, &status); err != nil || status.Status == "" {
		var plain string
		if err2 := json.Unmarshal(payload, &plain); err2 == nil {
			status.Status = plain
		} else {
			status.Status = strings.TrimSpace(string(payload))
		}
	}
	if status.Status == "" {
		log.Println("Empty security status payload, skipping")
		return
	}

	log.Printf("Security system status: %s", status.Status)

	if handler := c.getSecurityHandler(); handler != nil {
		handler(status)
	}
}

// SetSecurityHandler registers a callback for security status changes
func (c *MQTTClient) SetSecurityHandler(handler SecurityHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.securityHandler = handler
}

func (c *MQTTClient) getSecurityHandler() SecurityHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.securityHandler
}

func (c *MQTTClient) getSensorHandler() SensorUpdateHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sensorHandler
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// setConnected updates the connection status
func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("Disconnecting from MQTT broker...")
		c.client.Disconnect(250) // 250ms quiesce time
		c.setConnected(false)
	}
}

// newMQTTClientWithMock creates an MQTTClient with a provided mqtt.Client
// This is used for testing with mock clients
func newMQTTClientWithMock(client mqtt.Client, config *Config, handler SensorUpdateHandler) *MQTTClient {
	return &MQTTClient{
		client:        client,
		config:        config,
		sensorHandler: handler,
	}
}
