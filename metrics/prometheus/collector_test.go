package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordRows("ds_train", 100)
	c.RecordRows("ds_train", 50)
	c.RecordTable("ds_train", 150, 4096, time.Second, nil)
	c.RecordTable("ds_test", 0, 19, time.Second, errors.New("boom"))
	c.RecordExport(10, time.Second, nil)
	c.RecordExport(5, time.Second, errors.New("boom"))

	assert.InDelta(t, 150, testutil.ToFloat64(c.rowsTotal.WithLabelValues("ds_train")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.tableLoads.WithLabelValues("ds_train", statusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.tableLoads.WithLabelValues("ds_test", statusError)), 0)
	assert.InDelta(t, 4096, testutil.ToFloat64(c.copyBytesTotal.WithLabelValues("ds_train")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.exports.WithLabelValues(statusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.exports.WithLabelValues(statusError)), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(c.exportRows), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(c.tableDuration))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}
