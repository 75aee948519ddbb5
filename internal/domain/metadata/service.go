package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"imagemeta-server-go/internal/domain/image"
	"imagemeta-server-go/internal/platform/logging"
)

// RuleSource provides the stored prompt rules. Satisfied by every store
// driver.
type RuleSource interface {
	List(ctx context.Context) ([]PromptRule, error)
}

type ServiceOptions struct {
	Logger        *logging.Logger
	Primary       Provider
	Fallback      Provider
	Rules         RuleSource
	GlobalDefault string
}

// Service is the generation facade. Every call returns a Record; provider
// failures surface as error-tagged records, never as panics or nil results.
type Service struct {
	logger        *logging.Logger
	primary       Provider
	fallback      Provider
	rules         RuleSource
	globalDefault string
	builtins      map[string]string
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		logger:        opts.Logger,
		primary:       opts.Primary,
		fallback:      opts.Fallback,
		rules:         opts.Rules,
		globalDefault: opts.GlobalDefault,
		builtins:      BuiltinPrompts(),
	}
}

// GenerateSingle produces the full structured record for one image using
// the primary provider and the global instruction.
func (s *Service) GenerateSingle(ctx context.Context, ref image.Ref) Record {
	return s.generate(ctx, s.primary, ref, "", "")
}

// GenerateForCustomProperty produces a record for exactly one property. An
// empty override falls back to stored rules and built-in defaults.
func (s *Service) GenerateForCustomProperty(ctx context.Context, ref image.Ref, property, override string) Record {
	return s.generate(ctx, s.primary, ref, property, override)
}

// GenerateCombined runs the primary and fallback providers concurrently and
// reports both outcomes. A failure on one branch never touches the other.
func (s *Service) GenerateCombined(ctx context.Context, ref image.Ref) Combined {
	var combined Combined
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		combined.Primary = s.generate(ctx, s.primary, ref, "", "")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if s.fallback == nil {
			combined.Secondary = s.errorRecord(
				fmt.Errorf("fallback provider not configured"), nil)
			return
		}
		combined.Secondary = s.generate(ctx, s.fallback, ref, "", "")
	}()

	wg.Wait()
	return combined
}

// ConfigTestReport is the outcome of a configuration self-test.
type ConfigTestReport struct {
	Image  image.Info `json:"image"`
	Record Record     `json:"record"`
}

// tinyPNG is a valid 1x1 base64 PNG used by the self-test so the pipeline
// runs end to end without caller input.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// TestConfiguration exercises the full pipeline with a built-in image.
// It never fails: any panic is swallowed and reported as a nil report.
func (s *Service) TestConfiguration(ctx context.Context) (report *ConfigTestReport) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("configuration test panicked: %v", r)
			report = nil
		}
	}()

	record := s.generate(ctx, s.primary, image.Ref{Data: tinyPNG, Format: "png"}, "", "")
	return &ConfigTestReport{
		Image:  image.Info{Width: 800, Height: 600, Format: "jpg", SizeBytes: 150000, Filename: "test.jpg"},
		Record: record,
	}
}

func (s *Service) generate(ctx context.Context, provider Provider, ref image.Ref, property, override string) Record {
	requestID := uuid.NewString()
	started := time.Now()

	rules := s.loadRules(ctx)
	prompt := Resolve(property, override, rules, s.globalDefault, s.builtins)
	active := activeProperties(property, rules)

	s.logger.DebugTag("Provider", "[%s] %s generation, property=%q", requestID, provider.Name(), property)

	completion, err := provider.Complete(ctx, prompt, ref)
	if err != nil {
		s.logger.ErrorTag("Provider", "[%s] %s generation failed: %v", requestID, provider.Name(), err)
		return s.errorRecord(err, active)
	}

	record := ParseResponse(completion.Content, completion.Raw, provider.Tag(), active)
	if completion.Degraded {
		record.Provider = TagDefault
	}

	s.logger.InfoTag("Provider", "[%s] %s generation done in %v", requestID, provider.Name(), time.Since(started))
	return record
}

// loadRules reads the stored rules, degrading to none on storage trouble.
func (s *Service) loadRules(ctx context.Context) []PromptRule {
	if s.rules == nil {
		return nil
	}
	rules, err := s.rules.List(ctx)
	if err != nil {
		s.logger.WarnTag("Store", "listing prompt rules failed, continuing without: %v", err)
		return nil
	}
	return rules
}

// activeProperties names the properties a call is expected to fill: the
// requested one if any, otherwise the stored rule names.
func activeProperties(property string, rules []PromptRule) []string {
	if property != "" {
		return []string{property}
	}
	if len(rules) == 0 {
		return nil
	}
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		names = append(names, rule.Property)
	}
	return names
}

func (s *Service) errorRecord(err error, active []string) Record {
	if len(active) == 0 {
		active = []string{"description"}
	}

	record := Record{
		Provider:    TagError,
		Error:       err.Error(),
		GeneratedAt: time.Now(),
	}
	placeholder := fmt.Sprintf("Error: %v", err)
	for _, property := range active {
		record.SetProperty(property, placeholder)
	}
	return record
}
