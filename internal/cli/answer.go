package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sysup-io/sysup/internal/config"
	"github.com/sysup-io/sysup/internal/workflow"
)

var (
	answerSection string
	answerKey     string
	answerValue   string
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Record an answer in the answerfile",
	Long: `Record an answer to an upgrade dialog in the answerfile, so the next
(or resumed) upgrade run does not stop to ask for it.`,
	RunE: runAnswer,
}

func init() {
	f := answerCmd.Flags()
	f.StringVar(&answerSection, "section", "", "Dialog section to answer")
	f.StringVar(&answerKey, "key", "", "Option name within the section")
	f.StringVar(&answerValue, "value", "", "Answer value")
	answerCmd.MarkFlagRequired("section")
	answerCmd.MarkFlagRequired("key")
	answerCmd.MarkFlagRequired("value")
}

func runAnswer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	answers, err := workflow.LoadAnswersFile(cfg.AnswerFile)
	if err != nil {
		return err
	}
	answers.Set(answerSection, answerKey, answerValue)
	if err := answers.Save(cfg.AnswerFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded answer %s.%s in %s\n", answerSection, answerKey, cfg.AnswerFile)
	return nil
}
