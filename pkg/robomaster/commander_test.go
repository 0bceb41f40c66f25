package robomaster

import (
	"errors"
	"math"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRobot answers control requests on the far end of a net.Pipe.
type fakeRobot struct {
	mu    sync.Mutex
	cmds  []string
	reply func(cmd string) string
	done  chan struct{}
}

func okReply(string) string { return "ok" }

func newFakeRobot(t *testing.T, reply func(string) string) (*fakeRobot, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	r := &fakeRobot{reply: reply, done: make(chan struct{})}

	go func() {
		defer close(r.done)
		buf := make([]byte, DefaultBufSize)
		for {
			n, err := server.Read(buf)
			if err != nil {
				return
			}
			cmd := strings.TrimSuffix(string(buf[:n]), ";")
			r.mu.Lock()
			r.cmds = append(r.cmds, cmd)
			reply := r.reply
			r.mu.Unlock()
			if _, err := server.Write([]byte(reply(cmd))); err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() {
		server.Close()
		<-r.done
	})
	return r, client
}

func (r *fakeRobot) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cmds...)
}

func newTestCommander(t *testing.T, reply func(string) string) (*Commander, *fakeRobot) {
	t.Helper()
	robot, conn := newFakeRobot(t, reply)
	c, err := NewCommander(conn, "192.168.2.1", time.Second)
	require.NoError(t, err)
	return c, robot
}

func TestNewCommander_EntersSDKMode(t *testing.T) {
	c, robot := newTestCommander(t, okReply)
	assert.Equal(t, []string{"command"}, robot.commands())
	assert.Equal(t, "192.168.2.1", c.Addr())
}

func TestNewCommander_AcceptsAlreadyInSDKMode(t *testing.T) {
	_, conn := newFakeRobot(t, func(string) string { return "Already in SDK mode;" })
	_, err := NewCommander(conn, "192.168.2.1", time.Second)
	assert.NoError(t, err)
}

func TestNewCommander_RejectsUnexpectedReply(t *testing.T) {
	_, conn := newFakeRobot(t, func(string) string { return "error" })
	_, err := NewCommander(conn, "192.168.2.1", time.Second)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "command", callErr.Command)
	assert.Equal(t, "error", callErr.Reply)
}

func TestCommander_WireFormat(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Commander) error
		want string
	}{
		{"speed", func(c *Commander) error { return c.ChassisSpeed(0, 0.25, -30) }, "chassis speed x 0 y 0.25 z -30"},
		{"speed negative zero", func(c *Commander) error { return c.ChassisSpeed(0, math.Copysign(0, -1), 0) }, "chassis speed x 0 y 0 z 0"},
		{"stop", func(c *Commander) error { return c.Stop() }, "chassis wheel w1 0 w2 0 w3 0 w4 0"},
		{"move", func(c *Commander) error { return c.ChassisMove(-0.2, 0, 0, 0.4, 0) }, "chassis move x -0.2 y 0 z 0 vxy 0.4"},
		{"move both speeds", func(c *Commander) error { return c.ChassisMove(1, 1, 90, 1, 45) }, "chassis move x 1 y 1 z 90 vxy 1 vz 45"},
		{"mode", func(c *Commander) error { return c.RobotMode(ModeChassisLead) }, "robot mode chassis_lead"},
		{"push on", func(c *Commander) error { return c.ChassisPushOn(PushFreq{Position: 30, Attitude: 30}) }, "chassis push position on pfreq 30 attitude on afreq 30"},
		{"push all", func(c *Commander) error { return c.ChassisPushAll(10) }, "chassis push position on attitude on status on freq 10"},
		{"push off", func(c *Commander) error { return c.ChassisPushOff() }, "chassis push position off attitude off status off"},
		{"gimbal speed", func(c *Commander) error { return c.GimbalSpeed(10, -20) }, "gimbal speed p 10 y -20"},
		{"gimbal move", func(c *Commander) error { return c.GimbalMove(5, 5, 0, 90) }, "gimbal move p 5 y 5 vy 90"},
		{"gimbal moveto", func(c *Commander) error { return c.GimbalMoveTo(-10, 100, 30, 30) }, "gimbal moveto p -10 y 100 vp 30 vy 30"},
		{"recenter", func(c *Commander) error { return c.GimbalRecenter() }, "gimbal recenter"},
		{"gimbal push", func(c *Commander) error { return c.GimbalPushOn(5) }, "gimbal push attitude on afreq 5"},
		{"armor sensitivity", func(c *Commander) error { return c.ArmorSensitivity(10) }, "armor sensitivity 10"},
		{"armor event", func(c *Commander) error { return c.ArmorEvent(ArmorHit, true) }, "armor event hit on"},
		{"sound event", func(c *Commander) error { return c.SoundEvent(SoundApplause, false) }, "sound event applause off"},
		{"stream", func(c *Commander) error { return c.Stream(true) }, "stream on"},
		{"led", func(c *Commander) error { return c.LEDControl(LEDAll, LEDEffectSolid, 0, 0, 255) }, "led control comp all r 0 g 0 b 255 effect solid"},
		{"blaster", func(c *Commander) error { return c.BlasterFire() }, "blaster fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, robot := newTestCommander(t, okReply)
			require.NoError(t, tt.call(c))
			cmds := robot.commands()
			require.Len(t, cmds, 2)
			assert.Equal(t, tt.want, cmds[1])
		})
	}
}

func TestCommander_RejectsBeforeSending(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Commander) error
	}{
		{"speed x", func(c *Commander) error { return c.ChassisSpeed(4.0, 0, 0) }},
		{"wheel", func(c *Commander) error { return c.ChassisWheel(0, 0, 1001, 0) }},
		{"move negative speed", func(c *Commander) error { return c.ChassisMove(0, 0, 0, -1, 0) }},
		{"move speed over max", func(c *Commander) error { return c.ChassisMove(0, 0, 0, 3.6, 0) }},
		{"gimbal pitch", func(c *Commander) error { return c.GimbalMoveTo(31, 0, 0, 0) }},
		{"push freq", func(c *Commander) error { return c.ChassisPushAll(25) }},
		{"armor sensitivity", func(c *Commander) error { return c.ArmorSensitivity(11) }},
		{"led color", func(c *Commander) error { return c.LEDControl(LEDAll, LEDEffectSolid, 256, 0, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, robot := newTestCommander(t, okReply)
			err := tt.call(c)

			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, []string{"command"}, robot.commands(), "nothing may be sent")
		})
	}
}

func TestCommander_RejectsUnknownChoice(t *testing.T) {
	c, robot := newTestCommander(t, okReply)

	var choiceErr *ChoiceError
	require.ErrorAs(t, c.RobotMode("hover"), &choiceErr)
	require.ErrorAs(t, c.LEDControl("roof", LEDEffectSolid, 0, 0, 0), &choiceErr)
	require.ErrorAs(t, c.ArmorEvent("bump", true), &choiceErr)
	assert.Len(t, robot.commands(), 1)
}

func TestCommander_NonOKReply(t *testing.T) {
	c, _ := newTestCommander(t, func(cmd string) string {
		if cmd == "command" {
			return "ok"
		}
		return "fail"
	})

	err := c.GimbalSuspend()
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "gimbal suspend", callErr.Command)
}

func TestCommander_Queries(t *testing.T) {
	replies := map[string]string{
		"command":            "ok",
		"chassis position ?": "0.1 -0.2 3.5;",
		"chassis attitude ?": "1 2 3",
		"chassis speed ?":    "0.1 0 0 10 10 10 10",
		"chassis status ?":   "1 0 0 0 0 0 0 0 0 0 1",
		"gimbal attitude ?":  "-5 20",
		"robot mode ?":       "chassis_lead",
		"version":            "version 00.00.00.60",
	}
	c, _ := newTestCommander(t, func(cmd string) string { return replies[cmd] })

	pos, err := c.GetChassisPosition()
	require.NoError(t, err)
	assert.Equal(t, ChassisPosition{X: 0.1, Y: -0.2, Z: 3.5}, pos)

	att, err := c.GetChassisAttitude()
	require.NoError(t, err)
	assert.Equal(t, ChassisAttitude{Pitch: 1, Roll: 2, Yaw: 3}, att)

	speed, err := c.GetChassisSpeed()
	require.NoError(t, err)
	assert.Equal(t, 10.0, speed.W4)

	status, err := c.GetChassisStatus()
	require.NoError(t, err)
	assert.True(t, status.Static)
	assert.True(t, status.HillStatic)
	assert.False(t, status.PickedUp)

	gimbal, err := c.GetGimbalAttitude()
	require.NoError(t, err)
	assert.Equal(t, GimbalAttitude{Pitch: -5, Yaw: 20}, gimbal)

	mode, err := c.GetRobotMode()
	require.NoError(t, err)
	assert.Equal(t, ModeChassisLead, mode)

	version, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, "version 00.00.00.60", version)
}

func TestCommander_MalformedQueryReply(t *testing.T) {
	c, _ := newTestCommander(t, func(cmd string) string {
		switch cmd {
		case "command":
			return "ok"
		case "chassis position ?":
			return "0.1 0.2"
		}
		return "a b c"
	})

	var decodeErr *DecodeError
	_, err := c.GetChassisPosition()
	require.ErrorAs(t, err, &decodeErr)

	_, err = c.GetChassisAttitude()
	require.ErrorAs(t, err, &decodeErr)

	_, err = c.GetRobotMode()
	require.ErrorAs(t, err, &decodeErr)
}

func TestCommander_EmptyCommand(t *testing.T) {
	c, robot := newTestCommander(t, okReply)
	_, err := c.Do()
	assert.ErrorIs(t, err, ErrEmptyCommand)
	assert.Len(t, robot.commands(), 1)
}

func TestCommander_Close(t *testing.T) {
	c, robot := newTestCommander(t, okReply)

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"command", "quit"}, robot.commands())

	assert.ErrorIs(t, c.Close(), ErrClosed)
	assert.ErrorIs(t, c.Stop(), ErrClosed)
	_, err := c.Do("version")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCommander_ReadTimeout(t *testing.T) {
	robot, conn := newFakeRobot(t, okReply)
	c, err := NewCommander(conn, "192.168.2.1", 50*time.Millisecond)
	require.NoError(t, err)

	// Swallow the next request without answering.
	robot.mu.Lock()
	robot.reply = func(string) string { time.Sleep(200 * time.Millisecond); return "ok" }
	robot.mu.Unlock()

	err = c.BlasterFire()
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}
