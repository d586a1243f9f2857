package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	mqtt.Token
	err      error
	complete bool
}

func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Error() error                   { return t.err }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	messages     []message
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, message{topic: topic, retained: retained, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func TestPublish(t *testing.T) {
	client := &fakeClient{token: &fakeToken{complete: true}}
	m := newMQTT(client, "picofanctl")

	status := control.Status{Name: "cpu", Path: "/sys/fan1", Speed: 60, Temperature: 55, Manual: true}
	require.NoError(t, m.Publish(status))

	require.Len(t, client.messages, 1)
	msg := client.messages[0]
	assert.Equal(t, "picofanctl/cpu/state", msg.topic)
	assert.True(t, msg.retained)

	var decoded control.Status
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, uint32(60), decoded.Speed)
	assert.Equal(t, uint8(55), decoded.Temperature)

	m.Close()
	assert.True(t, client.disconnected)
}

func TestPublish_Errors(t *testing.T) {
	m := newMQTT(&fakeClient{token: &fakeToken{complete: false}}, "p")
	require.ErrorContains(t, m.Publish(control.Status{Name: "cpu"}), "timed out publishing to topic p/cpu/state")

	boom := errors.New("not connected")
	m = newMQTT(&fakeClient{token: &fakeToken{complete: true, err: boom}}, "p")
	require.ErrorIs(t, m.Publish(control.Status{Name: "cpu"}), boom)
}
