package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

func TestRecordCall(t *testing.T) {
	before := testutil.ToFloat64(calls.WithLabelValues("wallet_balance", "InvalidHandle"))
	RecordCall("wallet_balance", errors.CodeInvalidHandle, 3*time.Millisecond)
	RecordCall("wallet_balance", errors.CodeInvalidHandle, time.Millisecond)
	after := testutil.ToFloat64(calls.WithLabelValues("wallet_balance", "InvalidHandle"))
	assert.Equal(t, before+2, after)
}

func TestHandleGauge(t *testing.T) {
	reg := resource.NewRegistry()
	reg.Subscribe(HandleGauge{})

	gauge := liveHandles.WithLabelValues("invoice")
	base := testutil.ToFloat64(gauge)

	h1, err := reg.Insert(resource.FamilyInvoice, "a")
	require.NoError(t, err)
	_, err = reg.Insert(resource.FamilyInvoice, "b")
	require.NoError(t, err)
	assert.Equal(t, base+2, testutil.ToFloat64(gauge))

	require.NoError(t, reg.Destroy(h1, resource.FamilyInvoice))
	assert.Equal(t, base+1, testutil.ToFloat64(gauge))

	require.NoError(t, reg.Close())
	assert.Equal(t, base, testutil.ToFloat64(gauge))
}

func TestCollectors_Register(t *testing.T) {
	pr := prometheus.NewRegistry()
	for _, c := range Collectors() {
		require.NoError(t, pr.Register(c))
	}
	RecordCall("bech32_info", errors.CodeOK, time.Millisecond)

	n, err := testutil.GatherAndCount(pr, "citadel_abi_calls_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	Register()
	Register()
}
