package metadata

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagemeta-server-go/internal/domain/image"
	platformtest "imagemeta-server-go/internal/platform/testing"
)

type fakeProvider struct {
	name       string
	tag        Tag
	completion *Completion
	err        error
	calls      atomic.Int32
	lastPrompt atomic.Value
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Tag() Tag     { return f.tag }

func (f *fakeProvider) Complete(_ context.Context, prompt string, _ image.Ref) (*Completion, error) {
	f.calls.Add(1)
	f.lastPrompt.Store(prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

type fakeRules struct {
	rules []PromptRule
	err   error
}

func (f *fakeRules) List(_ context.Context) ([]PromptRule, error) {
	return f.rules, f.err
}

func testService(t *testing.T, opts ServiceOptions) *Service {
	t.Helper()
	opts.Logger = platformtest.SetupTestLogger(t)
	return NewService(opts)
}

func TestService_GenerateSingle(t *testing.T) {
	primary := &fakeProvider{
		name: "primary", tag: TagPrimary,
		completion: &Completion{
			Content: `{"Title":"Harbor","Description":"Boats at rest.","Keywords":"harbor,boats"}`,
		},
	}
	s := testService(t, ServiceOptions{Primary: primary})

	record := s.GenerateSingle(context.Background(), image.Ref{URL: "https://img/x.jpg"})

	assert.Equal(t, "Harbor", record.Title)
	assert.Equal(t, "Boats at rest.", record.Description)
	assert.Equal(t, "harbor,boats", record.Tags)
	assert.Equal(t, TagPrimary, record.Provider)
	assert.Empty(t, record.Error)
}

func TestService_GenerateSingleUsesGlobalPrompt(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, completion: &Completion{Content: "{}"}}
	s := testService(t, ServiceOptions{Primary: primary, GlobalDefault: "describe everything"})

	s.GenerateSingle(context.Background(), image.Ref{URL: "u"})
	assert.Equal(t, "describe everything", primary.lastPrompt.Load())
}

func TestService_CustomPropertyPromptResolution(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, completion: &Completion{Content: `{"mood":"calm"}`}}
	rules := &fakeRules{rules: []PromptRule{{Property: "mood", Prompt: "rate the mood"}}}
	s := testService(t, ServiceOptions{Primary: primary, Rules: rules})

	record := s.GenerateForCustomProperty(context.Background(), image.Ref{URL: "u"}, "mood", "")

	assert.Equal(t, "rate the mood", primary.lastPrompt.Load())
	value, ok := record.Property("mood")
	assert.True(t, ok)
	assert.Equal(t, "calm", value)
}

func TestService_CustomPropertyOverrideWins(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, completion: &Completion{Content: `{"mood":"calm"}`}}
	rules := &fakeRules{rules: []PromptRule{{Property: "mood", Prompt: "rate the mood"}}}
	s := testService(t, ServiceOptions{Primary: primary, Rules: rules})

	s.GenerateForCustomProperty(context.Background(), image.Ref{URL: "u"}, "mood", "override text")
	assert.Equal(t, "override text", primary.lastPrompt.Load())
}

func TestService_ProviderFailureYieldsErrorRecord(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, err: fmt.Errorf("connection refused")}
	s := testService(t, ServiceOptions{Primary: primary})

	record := s.GenerateSingle(context.Background(), image.Ref{URL: "u"})

	assert.Equal(t, TagError, record.Provider)
	assert.Contains(t, record.Error, "connection refused")
	assert.Contains(t, record.Description, "Error:")
}

func TestService_RuleListFailureDegradesToNoRules(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, completion: &Completion{Content: "{}"}}
	s := testService(t, ServiceOptions{Primary: primary, Rules: &fakeRules{err: fmt.Errorf("store down")}})

	record := s.GenerateSingle(context.Background(), image.Ref{URL: "u"})
	assert.Equal(t, TagPrimary, record.Provider)
	assert.Empty(t, record.Error)
}

func TestService_GenerateCombined(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, completion: &Completion{Content: `{"Title":"P"}`}}
	fallback := &fakeProvider{name: "fallback", tag: TagFallback, completion: &Completion{Content: `{"Title":"F"}`}}
	s := testService(t, ServiceOptions{Primary: primary, Fallback: fallback})

	combined := s.GenerateCombined(context.Background(), image.Ref{URL: "u"})

	assert.Equal(t, "P", combined.Primary.Title)
	assert.Equal(t, TagPrimary, combined.Primary.Provider)
	assert.Equal(t, "F", combined.Secondary.Title)
	assert.Equal(t, TagFallback, combined.Secondary.Provider)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load())
}

func TestService_CombinedBranchesFailIndependently(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, err: fmt.Errorf("primary down")}
	fallback := &fakeProvider{name: "fallback", tag: TagFallback, completion: &Completion{Content: `{"Title":"F"}`}}
	s := testService(t, ServiceOptions{Primary: primary, Fallback: fallback})

	combined := s.GenerateCombined(context.Background(), image.Ref{URL: "u"})

	assert.Equal(t, TagError, combined.Primary.Provider)
	assert.Equal(t, "F", combined.Secondary.Title)
}

func TestService_CombinedWithoutFallback(t *testing.T) {
	primary := &fakeProvider{name: "primary", tag: TagPrimary, completion: &Completion{Content: `{"Title":"P"}`}}
	s := testService(t, ServiceOptions{Primary: primary})

	combined := s.GenerateCombined(context.Background(), image.Ref{URL: "u"})

	assert.Equal(t, "P", combined.Primary.Title)
	assert.Equal(t, TagError, combined.Secondary.Provider)
	assert.Contains(t, combined.Secondary.Error, "fallback provider not configured")
}

func TestService_TestConfiguration(t *testing.T) {
	primary := &fakeProvider{
		name: "primary", tag: TagPrimary,
		completion: &Completion{Content: `{"Title":"T"}`, Degraded: true},
	}
	s := testService(t, ServiceOptions{Primary: primary})

	report := s.TestConfiguration(context.Background())

	require.NotNil(t, report)
	assert.Equal(t, TagDefault, report.Record.Provider)
	assert.Equal(t, 800, report.Image.Width)
	assert.Equal(t, 600, report.Image.Height)
	assert.Equal(t, int32(1), primary.calls.Load())
}

func TestService_DegradedCompletionTaggedDefault(t *testing.T) {
	primary := &fakeProvider{
		name: "primary", tag: TagPrimary,
		completion: &Completion{Content: `{"Title":"canned"}`, Degraded: true},
	}
	s := testService(t, ServiceOptions{Primary: primary})

	record := s.GenerateSingle(context.Background(), image.Ref{URL: "u"})
	assert.Equal(t, TagDefault, record.Provider)
	assert.Equal(t, "canned", record.Title)
}
