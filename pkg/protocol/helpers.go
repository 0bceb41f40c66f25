package protocol

import "github.com/teslashibe/go-robomaster/pkg/keeper"

// NewStatusMessage wraps a keeper snapshot.
func NewStatusMessage(s keeper.Snapshot) (*Message, error) {
	return NewMessage(TypeStatus, s)
}

// NewQueuesMessage wraps queue statistics.
func NewQueuesMessage(stats []QueueStat) (*Message, error) {
	return NewMessage(TypeQueues, stats)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string, ts int64) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: ts})
}

// NewPongMessage answers a ping received at pingTS.
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// GetStatus extracts the snapshot from a status message.
func (m *Message) GetStatus() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetQueues extracts queue statistics.
func (m *Message) GetQueues() ([]QueueStat, error) {
	var data []QueueStat
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
