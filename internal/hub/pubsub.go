package hub

import (
	"encoding/json"
	"log"
)

// StartPubSubListener bridges events relayed by other instances into the
// local fan-out. Without Redis configured this is a no-op and the gateway is
// single-instance.
func (m *Manager) StartPubSubListener() {
	pubsub := m.Storage.SubscribeEvents()
	if pubsub == nil {
		return
	}

	go func() {
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var remote RemoteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &remote); err != nil {
				log.Printf("error decoding relayed event from %s: %v", msg.Channel, err)
				continue
			}
			m.PubSubCh <- remote
		}
	}()
}
