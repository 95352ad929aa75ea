package playbilling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	catalog "github.com/minilingo/minilingo/internal/catalog/domain"
	"github.com/minilingo/minilingo/internal/checkout/domain"
)

func readyChannel(t *testing.T) *SandboxChannel {
	t.Helper()
	c := NewSandboxChannel("₹60", nil)
	require.NoError(t, c.InitConnection(context.Background()))
	t.Cleanup(func() { c.EndConnection() })
	return c
}

func receiveUpdate(t *testing.T, c *SandboxChannel) domain.Purchase {
	t.Helper()
	select {
	case p := <-c.Updates():
		return p
	case <-time.After(time.Second):
		t.Fatal("no purchase update delivered")
		return domain.Purchase{}
	}
}

func TestSandboxChannel_Lifecycle(t *testing.T) {
	c := NewSandboxChannel("₹60", nil)
	require.False(t, c.Ready())

	require.NoError(t, c.InitConnection(context.Background()))
	require.True(t, c.Ready())

	require.NoError(t, c.EndConnection())
	require.False(t, c.Ready())
	require.NoError(t, c.EndConnection())

	require.Error(t, c.InitConnection(context.Background()))
}

func TestSandboxChannel_GetProductsCoversCatalog(t *testing.T) {
	c := readyChannel(t)

	ids := make([]string, 0, 6)
	for _, o := range catalog.Offerings() {
		ids = append(ids, o.ProductID)
	}
	ids = append(ids, "french_junior")

	products, err := c.GetProducts(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, products, len(catalog.Offerings()))
	for _, p := range products {
		require.Equal(t, "₹60", p.LocalizedPrice)
		require.NotEmpty(t, p.Title)
	}
}

func TestSandboxChannel_RequestPurchaseDeliversReceipt(t *testing.T) {
	c := readyChannel(t)

	require.NoError(t, c.RequestPurchase(context.Background(), "hindi_junior"))
	p := receiveUpdate(t, c)

	require.Equal(t, "hindi_junior", p.ProductID)
	require.NotEmpty(t, p.TransactionID)

	token, err := domain.ExtractToken(p)
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestSandboxChannel_UnknownProductIsUnavailable(t *testing.T) {
	c := readyChannel(t)

	require.NoError(t, c.RequestPurchase(context.Background(), "klingon_junior"))

	select {
	case e := <-c.Errors():
		require.Equal(t, domain.ChannelErrItemUnavailable, e.Code)
		require.Equal(t, "klingon_junior", e.ProductID)
	case <-time.After(time.Second):
		t.Fatal("no channel error delivered")
	}
}

func TestSandboxChannel_DeciderRoutesToErrors(t *testing.T) {
	c := readyChannel(t)
	c.SetDecider(func(productID string) *domain.ChannelError {
		return &domain.ChannelError{Code: domain.ChannelErrUserCancelled, ProductID: productID}
	})

	require.NoError(t, c.RequestPurchase(context.Background(), "tamil_junior"))

	select {
	case e := <-c.Errors():
		require.Equal(t, domain.ChannelErrUserCancelled, e.Code)
	case <-time.After(time.Second):
		t.Fatal("no channel error delivered")
	}
}

func TestSandboxChannel_FinishTransactionIsIdempotent(t *testing.T) {
	c := readyChannel(t)

	require.NoError(t, c.RequestPurchase(context.Background(), "hindi_junior"))
	p := receiveUpdate(t, c)

	require.NoError(t, c.FinishTransaction(context.Background(), p))
	require.NoError(t, c.FinishTransaction(context.Background(), p))
	require.Equal(t, 2, c.FinishCount(p.TransactionID))
}

func TestSandboxChannel_RequestAfterEndIsNotReady(t *testing.T) {
	c := NewSandboxChannel("₹60", nil)
	require.NoError(t, c.InitConnection(context.Background()))
	require.NoError(t, c.EndConnection())

	err := c.RequestPurchase(context.Background(), "hindi_junior")
	require.ErrorIs(t, err, domain.ErrNotReady)
}
