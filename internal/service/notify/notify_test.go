package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []whatsapp.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req whatsapp.SendTextMessageRequest) (*whatsapp.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &whatsapp.SendTextMessageResponse{}, nil
}

func TestWhatsApp_Notify(t *testing.T) {
	client := &fakeClient{}
	n := NewWhatsApp(client, "224620000000", nil)

	require.NoError(t, n.Notify(context.Background(), "Weekly summary"))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "224620000000", client.sent[0].To)
	assert.Equal(t, "Weekly summary", client.sent[0].Body)

	client.err = errors.New("boom")
	assert.Error(t, n.Notify(context.Background(), "again"))
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(context.Background(), "ignored"))
}
