package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mock-interview/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Проверить конфигурацию и вывести ее сводку",
	RunE: func(cmd *cobra.Command, _ []string) error {
		appCfg, interviewCfg, err := loadConfigs()
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), appCfg, interviewCfg)
		if err := appCfg.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\n✅ Конфигурация корректна")
		return nil
	},
}

func printSummary(w io.Writer, appCfg *config.AppConfig, cfg *config.Config) {
	fmt.Fprintln(w, "📋 Конфигурация:")
	fmt.Fprintf(w, "• Интервьюер: %s, %d, голос %s\n", cfg.Interviewer.Name, cfg.Interviewer.Age, cfg.Interviewer.Voice)
	fmt.Fprintf(w, "• Вопросов из банка: %d из %d\n", cfg.GetRequiredQuestions(), cfg.GetBankSize())
	fmt.Fprintf(w, "• Реплик за интервью: %d\n", cfg.GetTotalSlots())
	fmt.Fprintf(w, "• Пауза после ответа: %s\n", cfg.Interview.AnswerGracePeriod)

	switch appCfg.LLMProvider {
	case config.ProviderGemini:
		fmt.Fprintf(w, "• Модель: %v\n", appCfg.Gemini.GetModelInfo())
	default:
		fmt.Fprintf(w, "• Модель: %v\n", appCfg.OpenAI.GetModelInfo())
	}
	fmt.Fprintf(w, "• Распознавание: Deepgram %s, %d Гц, каналов %d\n",
		appCfg.Deepgram.Model, appCfg.Deepgram.SampleRate, appCfg.Deepgram.Channels)
	fmt.Fprintf(w, "• Синтез речи: %s\n", appCfg.TTS.Provider)
	fmt.Fprintf(w, "• Адрес: %s\n", appCfg.Addr())
}
