package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one error, nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report yaml key paths rather than Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// NormalizeAndValidate returns a normalized copy of cfg plus everything
// wrong with it. Struct tags cover ranges; the rest are cross-field rules.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Origins.Craigslist.Queries = trimList(out.Origins.Craigslist.Queries)
	out.Origins.Craigslist.Categories = trimList(out.Origins.Craigslist.Categories)
	out.Origins.MiamiDade.Keywords = trimList(out.Origins.MiamiDade.Keywords)
	out.Origins.Broward.Keywords = trimList(out.Origins.Broward.Keywords)
	out.Origins.Exa.Queries = trimList(out.Origins.Exa.Queries)
	out.Origins.Brave.Queries = trimList(out.Origins.Brave.Queries)
	out.Origins.DuckDuckGo.Queries = trimList(out.Origins.DuckDuckGo.Queries)
	out.Origins.Reddit.Subreddits = trimList(out.Origins.Reddit.Subreddits)
	out.Origins.Reddit.Queries = trimList(out.Origins.Reddit.Queries)
	out.Origins.Inbox.SubjectAny = trimList(out.Origins.Inbox.SubjectAny)
	out.Queries.Keywords = trimList(out.Queries.Keywords)
	out.Queries.Locations = trimList(out.Queries.Locations)
	out.Queries.Regions = trimList(out.Queries.Regions)
	out.Queries.Sites = trimList(out.Queries.Sites)
	out.Classifier.Boilerplate = trimList(out.Classifier.Boilerplate)

	if err := structValidator().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				res.addErr("%s failed %q (value %v)", trimNamespace(fe.Namespace()), fe.Tag(), fe.Value())
			}
		} else {
			res.addErr("%v", err)
		}
	}

	s := out.Scoring
	if s.ConfidenceWeight+s.ProjectWeight+s.RecencyWeight+s.TrustWeight <= 0 {
		res.addErr("scoring weights must not all be zero")
	}

	if out.Classifier.MinSignal > out.Classifier.MaxSignal {
		res.addErr("classifier.min_signal (%.2f) is above classifier.max_signal (%.2f)",
			out.Classifier.MinSignal, out.Classifier.MaxSignal)
	}
	if len(out.Classifier.Negative) == 0 {
		res.addWarn("classifier.negative is empty; business ads will only be caught by missing need phrases.")
	}

	seenTag := map[string]bool{}
	for _, p := range out.Classifier.Projects {
		if seenTag[p.Tag] {
			res.addErr("classifier.projects has duplicate tag %q", p.Tag)
		}
		seenTag[p.Tag] = true
	}

	o := out.Origins
	if !o.Craigslist.Enabled && !o.MiamiDade.Enabled && !o.Broward.Enabled && !o.Exa.Enabled &&
		!o.Brave.Enabled && !o.DuckDuckGo.Enabled && !o.Reddit.Enabled && !o.Inbox.Enabled {
		res.addWarn("no origins enabled; every run will end in a total failure.")
	}
	if o.Reddit.Enabled && len(o.Reddit.Subreddits) == 0 {
		res.addErr("origins.reddit.subreddits must not be empty when reddit is enabled")
	}
	if o.Inbox.Enabled && (o.Inbox.IMAPHost == "" || o.Inbox.Username == "") {
		res.addErr("origins.inbox needs imap_host and username when enabled")
	}
	if o.Craigslist.Enabled && o.Craigslist.MinDelayMS < 1000 {
		res.addWarn("origins.craigslist.min_delay_ms is %d; craigslist blocks fast clients.", o.Craigslist.MinDelayMS)
	}

	if out.Run.StalenessDays > 180 {
		res.addWarn("run.staleness_days is %d; old posts rarely convert.", out.Run.StalenessDays)
	}

	return out, res
}

// Validate is NormalizeAndValidate for callers that only need a yes/no.
func Validate(cfg Config) error {
	_, res := NormalizeAndValidate(cfg)
	return res.Err()
}

// trimNamespace drops the leading struct name from a validator namespace.
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
