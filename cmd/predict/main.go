// Command predict classifies one loan application from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/pflag"

	"loan-predictor/apperrors"
	"loan-predictor/collector"
	"loan-predictor/config"
	"loan-predictor/domain"
	"loan-predictor/logger"
	"loan-predictor/model"
	"loan-predictor/service"
)

// flagFields maps each command-line flag to the raw field it fills.
var flagFields = []struct {
	flag  string
	field string
	usage string
}{
	{"loan-amount", domain.FieldLoanAmount, "loan amount"},
	{"term-days", domain.FieldTermDays, "loan length in days (15, 30, 60 or 90)"},
	{"interest-rate", domain.FieldInterestRate, "interest rate in percent"},
	{"account-type", domain.FieldBankAccountType, "bank account type"},
	{"bank", domain.FieldBankName, "bank name"},
	{"employment", domain.FieldEmploymentStatus, "employment status"},
	{"prev-loans", domain.FieldNumPrevLoans, "number of previous loans"},
	{"avg-term-days", domain.FieldAvgTermDays, "average length of previous loans in days"},
	{"avg-delay-days", domain.FieldAvgPrevDelayDays, "average repayment delay in days"},
	{"age", domain.FieldAge, "applicant age"},
}

type result struct {
	Label         domain.Label `json:"label"`
	Verdict       string       `json:"verdict"`
	Headline      string       `json:"headline"`
	Message       string       `json:"message"`
	ConfidencePct float64      `json:"confidence_pct"`
	LoanTerm      string       `json:"loan_term"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("predict", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := collector.Values(domain.DefaultLoanApplication())
	raw := make(map[string]*string, len(flagFields))
	for _, f := range flagFields {
		raw[f.field] = fs.String(f.flag, defaults.Get(f.field), f.usage)
	}
	configPath := fs.String("config", "", "config file (default: configs/config.yaml lookup)")
	modelPath := fs.String("model", "", "model artifact, overrides model.path")
	asJSON := fs.Bool("json", false, "print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	classifier, err := model.Load(cfg.Model.Path)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	labels := domain.LabelMapping{Good: cfg.Model.Labels.Good, Bad: cfg.Model.Labels.Bad}
	predictor, err := service.NewPredictorService(classifier, labels, log)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	values := url.Values{}
	for field, v := range raw {
		values.Set(field, *v)
	}
	app, err := collector.CollectValidated(collector.NewFormCollector(values))
	if err != nil {
		printInputError(stderr, err)
		return 1
	}

	outcome, err := predictor.Predict(context.Background(), app)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	verdict := outcome.Verdict()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result{
			Label:         outcome.Label,
			Verdict:       verdict.Name,
			Headline:      verdict.Headline,
			Message:       verdict.Message,
			ConfidencePct: outcome.ConfidencePct,
			LoanTerm:      app.LoanTerm(),
		}); err != nil {
			fmt.Fprintf(stderr, "encode result: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "%s: %s\nConfidence: %.2f%%\n", verdict.Headline, verdict.Message, outcome.ConfidencePct)
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func printInputError(w io.Writer, err error) {
	stdErr := apperrors.From(err)
	fmt.Fprintln(w, stdErr.Message)
	for _, f := range stdErr.Fields {
		fmt.Fprintf(w, "  %s: %s\n", flagFor(f.Field), f.Message)
	}
}

func flagFor(field string) string {
	for _, f := range flagFields {
		if f.field == field {
			return "--" + f.flag
		}
	}
	return field
}
