package bridge

import (
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/foreign"
	"github.com/ajitpratap0/colbridge/pkg/json"
	"github.com/ajitpratap0/colbridge/pkg/schema"
	"github.com/ajitpratap0/colbridge/pkg/testutil"
)

// ScenarioSuite drives the host-facing surface end to end: host values in,
// references across the boundary, typed buffers and JSON out.
type ScenarioSuite struct {
	testutil.BoundarySuite
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) TestTypedBufferThroughReference() {
	series, err := NewSeries("a", []int32{1, 2, 3})
	s.Require().NoError(err)
	ref := series.Export()
	defer ReleaseSeries(ref)

	var out any
	s.Require().NoError(WithSeries(ref, func(se *Series) error {
		out, err = se.ToArray()
		return err
	}))
	s.Equal([]int32{1, 2, 3}, out)

	n, err := promtest.GatherAndCount(s.Metrics().Registry(), "suite_handles_live")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *ScenarioSuite) TestJSONDocumentToFrameAndBack() {
	doc, err := json.UnmarshalHost([]byte(`{"k": [1, 1, 2], "v": ["x", null, "z"]}`))
	s.Require().NoError(err)

	df, err := NewDataFrame(doc)
	s.Require().NoError(err)
	defer df.Release()
	s.Equal([]string{"f64", "str"}, df.DTypes())

	unique, err := df.DropDuplicates(&DropDuplicateOptions{Subset: []string{"k"}})
	s.Require().NoError(err)
	out, err := unique.ToJSON()
	s.Require().NoError(err)
	s.JSONEq(`{"k": [1, 2], "v": ["x", "z"]}`, out)
}

func (s *ScenarioSuite) TestExpressionsAcrossTheBoundary() {
	series, err := NewSeries("n", []any{1.5, 2.5})
	s.Require().NoError(err)
	ref := series.Export()
	defer ReleaseSeries(ref)

	df, err := NewDataFrame([]any{ref})
	s.Require().NoError(err)

	lf, err := df.Lazy().WithColumns(foreign.Slice{
		Col("n").Cast(int(schema.Int32)).Alias("whole"),
		Lit("tag").Alias("label"),
	})
	s.Require().NoError(err)

	out, err := lf.Collect(s.Context())
	s.Require().NoError(err)
	s.Equal([]string{"n", "whole", "label"}, out.Columns())
	s.Equal([]string{"f64", "i32", "str"}, out.DTypes())
}

func (s *ScenarioSuite) TestChunkedSeriesNeedsRechunk() {
	series, err := NewSeries("a", []uint16{1, 2, 3, 4})
	s.Require().NoError(err)
	tail := series.Slice(2, 2)
	s.Require().NoError(tail.Append(series.Head(1)))

	_, err = tail.ToArray()
	var he *HostError
	s.Require().ErrorAs(err, &he)
	s.Equal(errors.ErrorTypeNotContiguous, he.Type)

	_, err = tail.Rechunk(true)
	s.Require().NoError(err)
	out, err := tail.ToArray()
	s.Require().NoError(err)
	s.Equal([]uint16{3, 4, 1}, out)
}
