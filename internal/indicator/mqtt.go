package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/eclipse/paho.golang/paho"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
)

// #region publisher
// Publisher is the slice of the paho client the MQTT indicator uses.
type Publisher interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

// Message is the retained payload published for each indicator topic.
type Message struct {
	State string `json:"state,omitempty"`
	On    bool   `json:"on"`
}

// #endregion publisher

// #region mqtt
// MQTT mirrors indicator state to retained topics under a prefix:
// <prefix>/hand/left, <prefix>/hand/right and <prefix>/fault. Unchanged
// payloads are not republished.
type MQTT struct {
	pub     Publisher
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
	last    map[string]string
	closer  func() error
}

// NewMQTT wraps an already connected publisher.
func NewMQTT(pub Publisher, prefix string, logger *slog.Logger) *MQTT {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTT{
		pub:     pub,
		prefix:  prefix,
		timeout: 2 * time.Second,
		logger:  logger,
		last:    make(map[string]string),
	}
}

// DialMQTT connects a paho client to a broker at addr (host:port).
func DialMQTT(ctx context.Context, addr, clientID, prefix string, logger *slog.Logger) (*MQTT, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial broker %s: %w", addr, err)
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: clientID,
		Conn:     conn,
	})
	ack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  30,
		CleanStart: true,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	if ack.ReasonCode != 0 {
		conn.Close()
		return nil, fmt.Errorf("mqtt connect refused: reason %d", ack.ReasonCode)
	}

	m := NewMQTT(client, prefix, logger)
	m.closer = func() error {
		return client.Disconnect(&paho.Disconnect{ReasonCode: 0})
	}
	return m, nil
}

func (m *MQTT) SetState(hand classify.Hand, state classify.State) {
	m.publish(m.prefix+"/hand/"+hand.String(), Message{
		State: string(state),
		On:    state != classify.None,
	})
}

func (m *MQTT) SetFault(on bool) {
	m.publish(m.prefix+"/fault", Message{On: on})
}

func (m *MQTT) Off() {
	m.SetState(classify.LeftHand, classify.None)
	m.SetState(classify.RightHand, classify.None)
	m.SetFault(false)
}

// Close turns everything off and disconnects when this indicator owns the
// connection.
func (m *MQTT) Close() error {
	m.Off()
	if m.closer != nil {
		return m.closer()
	}
	return nil
}

func (m *MQTT) publish(topic string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		m.logger.Warn("mqtt encode failed", "topic", topic, "err", err)
		return
	}
	if m.last[topic] == string(payload) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	_, err = m.pub.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     1,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		m.logger.Warn("mqtt publish failed", "topic", topic, "err", err)
		return
	}
	m.last[topic] = string(payload)
}

// #endregion mqtt
