package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWSConn struct{ mock.Mock }

func (m *mockWSConn) ReadMessage() (int, []byte, error) {
	args := m.Called()
	return args.Int(0), args.Get(1).([]byte), args.Error(2)
}

func (m *mockWSConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockWSConn) WriteJSON(v interface{}) error {
	args := m.Called(v)
	return args.Error(0)
}

var wsService *WSConnKeeper

func initWSTest(t *testing.T) {
	wsService = NewWSConnKeeper()
}

func createTestConn(t *testing.T, id string, closeChan <-chan struct{}) *mockWSConn {
	t.Helper()
	connWSMock := &mockWSConn{}
	connWSMock.On("WriteJSON", mock.Anything).Return(nil)
	connWSMock.On("ReadMessage").Return(1, []byte(id), nil).Once()
	connWSMock.On("ReadMessage").Return(1, []byte(id), fmt.Errorf("err")).Run(func(args mock.Arguments) {
		<-closeChan
	})
	connWSMock.On("Close").Return(nil)
	return connWSMock
}

func testHas(t *testing.T, s string, i int) {
	t.Helper()
	ctx := test.Ctx(t)
	for {
		cn, ok := wsService.GetConnections(s)
		if ok == (i > 0) && len(cn) == i {
			break
		}
		select {
		case <-ctx.Done():
			require.Failf(t, "timeouted", "not found connection %s", s)
		case <-time.After(time.Millisecond * 100):
		}
	}
}

func Test_HandleConnection(t *testing.T) {
	initWSTest(t)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	go func() {
		err := wsService.HandleConnection(createTestConn(t, "1", closeCtx.Done()))
		assert.Nil(t, err)
	}()
	testHas(t, "1", 1)
	cf()
}

func Test_HandleConnection_Several(t *testing.T) {
	initWSTest(t)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	for i := 0; i < 10; i++ {
		go func() {
			err := wsService.HandleConnection(createTestConn(t, "1", closeCtx.Done()))
			assert.Nil(t, err)
		}()
	}
	testHas(t, "1", 10)
	cf()
}

func Test_HandleConnection_Cleans(t *testing.T) {
	initWSTest(t)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	go func() {
		err := wsService.HandleConnection(createTestConn(t, "1", closeCtx.Done()))
		assert.Nil(t, err)
	}()
	testHas(t, "1", 1)
	cf()
	testHas(t, "1", 0)
}

func Test_StatusNotifier(t *testing.T) {
	wsHandler := &mockWSConnHandler{}
	conn := &mockWSConn{}
	conn.On("WriteJSON", mock.Anything).Return(nil)
	wsHandler.On("GetConnections", "e1").Return([]WsConn{conn}, true)

	n := NewStatusNotifier(wsHandler)
	n.EntryChanged(&persistence.Entry{ID: "e1", TranscriptionStatus: "completed",
		SummaryStatus: "pending"})

	conn.AssertCalled(t, "WriteJSON", mock.MatchedBy(func(ev *statusEvent) bool {
		return ev.ID == "e1" && ev.TranscriptionStatus == "completed" &&
			ev.SummaryStatus == "pending"
	}))
}

func Test_StatusNotifier_NoSubscribers(t *testing.T) {
	wsHandler := &mockWSConnHandler{}
	wsHandler.On("GetConnections", "e1").Return(nil, false)

	n := NewStatusNotifier(wsHandler)
	n.EntryChanged(&persistence.Entry{ID: "e1"})
}
