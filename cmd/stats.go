package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tibbisekreter/cli/cmd/utils"
	"github.com/tibbisekreter/cli/cmd/version"
)

var (
	statsURL        string
	statsOutputJSON bool
	statsTopLimit   int
)

const (
	statsTimeout       = 10 * time.Second
	defaultTopLimit    = 12
	maxQuestionWidth   = 50
	maxCategoryWidth   = 32
	monthlyTrendWindow = 12
)

// ErrStatsUnavailable is returned when the stats backend answers with
// success: false.
var ErrStatsUnavailable = errors.New("Veri alınamadı") //nolint:staticcheck // shown to staff verbatim

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type MonthlyCount struct {
	// Month is formatted YYYY-MM.
	Month string `json:"month"`
	Count int    `json:"count"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyStats is the payload of GET /api/stats/weekly.
type WeeklyStats struct {
	Success        bool            `json:"success"`
	TotalQuestions int             `json:"total_questions"`
	Categories     []CategoryCount `json:"categories"`
	DailyTrend     []DailyCount    `json:"daily_trend"`
	DateRange      DateRange       `json:"date_range"`
}

// AllTimeStats is the payload of GET /api/stats/all.
type AllTimeStats struct {
	Success        bool            `json:"success"`
	TotalQuestions int             `json:"total_questions"`
	Categories     []CategoryCount `json:"categories"`
	MonthlyTrend   []MonthlyCount  `json:"monthly_trend"`
	FirstRecord    string          `json:"first_record"`
	LastRecord     string          `json:"last_record"`
}

// LogEntry is one logged kiosk question. Other fields are ignored.
type LogEntry struct {
	Question string `json:"question"`
}

type LogsResponse struct {
	Logs []LogEntry `json:"logs"`
}

// QuestionCount is a row of the most-asked list.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// StatsClient reads the dashboard endpoints of the stats backend.
type StatsClient struct {
	BaseURL    string
	HTTPClient utils.HTTPClient
}

func NewStatsClient(baseURL string) *StatsClient {
	return &StatsClient{BaseURL: baseURL, HTTPClient: utils.GetHTTPClientWithTimeout(statsTimeout)}
}

func (c *StatsClient) get(ctx context.Context, path string, out any) error {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("Sunucuya bağlanılamadı: %w", err) //nolint:staticcheck // shown to staff verbatim
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, utils.PrettyServerError(resp, body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *StatsClient) Weekly(ctx context.Context) (*WeeklyStats, error) {
	var stats WeeklyStats
	if err := c.get(ctx, "/api/stats/weekly", &stats); err != nil {
		return nil, err
	}
	if !stats.Success {
		return nil, ErrStatsUnavailable
	}
	return &stats, nil
}

func (c *StatsClient) AllTime(ctx context.Context) (*AllTimeStats, error) {
	var stats AllTimeStats
	if err := c.get(ctx, "/api/stats/all", &stats); err != nil {
		return nil, err
	}
	if !stats.Success {
		return nil, ErrStatsUnavailable
	}
	return &stats, nil
}

func (c *StatsClient) Logs(ctx context.Context) ([]LogEntry, error) {
	var resp LogsResponse
	if err := c.get(ctx, "/logs", &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

var turkishLower = cases.Lower(language.Turkish)

// TopQuestions counts questions after trimming and Turkish lower-casing,
// so "İlaç" and "ilaç" are the same question. Ties are broken
// alphabetically. A limit of zero or less keeps every row.
func TopQuestions(logs []LogEntry, limit int) []QuestionCount {
	counts := make(map[string]int)
	for _, l := range logs {
		q := strings.TrimSpace(l.Question)
		if q == "" {
			continue
		}
		counts[turkishLower.String(q)]++
	}

	rows := make([]QuestionCount, 0, len(counts))
	for q, n := range counts {
		rows = append(rows, QuestionCount{Question: q, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Question < rows[j].Question
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// sortedCategories returns a copy ordered by value, largest first.
func sortedCategories(in []CategoryCount) []CategoryCount {
	out := append([]CategoryCount(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

var turkishMonths = [...]string{"Oca", "Şub", "Mar", "Nis", "May", "Haz", "Tem", "Ağu", "Eyl", "Eki", "Kas", "Ara"}

// formatMonth turns "2024-03" into "Mar 24". Anything else is returned as is.
func formatMonth(month string) string {
	year, mm, ok := strings.Cut(month, "-")
	if !ok || len(year) < 2 {
		return month
	}
	n, err := strconv.Atoi(mm)
	if err != nil || n < 1 || n > 12 {
		return month
	}
	return fmt.Sprintf("%s %s", turkishMonths[n-1], year[len(year)-2:])
}

func monthlyAverage(trend []MonthlyCount) int {
	sum := 0
	for _, m := range trend {
		sum += m.Count
	}
	return utils.RoundDiv(sum, len(trend))
}

func writeCategoryTable(w io.Writer, categories []CategoryCount, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Kategori\tSoru\tPay")
	fmt.Fprintln(tw, "--------\t----\t---")
	for _, c := range sortedCategories(categories) {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", utils.TruncateWidth(c.Name, maxCategoryWidth), c.Value, utils.FormatPercent(c.Value, total))
	}
	tw.Flush()
}

func displayWeekly(w io.Writer, s *WeeklyStats) {
	fmt.Fprintf(w, "\n📊 Haftalık İstatistikler (%s - %s)\n", s.DateRange.Start, s.DateRange.End)
	fmt.Fprintln(w, strings.Repeat("═", 60))
	if s.TotalQuestions == 0 {
		fmt.Fprintln(w, "Bu hafta henüz veri yok. Son 7 günde hiç soru sorulmamış.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Toplam Soru:\t%d\n", s.TotalQuestions)
	fmt.Fprintf(tw, "Farklı Kategori:\t%d\n", len(s.Categories))
	fmt.Fprintf(tw, "Günlük Ortalama:\t%d\n", utils.RoundDiv(s.TotalQuestions, 7))
	tw.Flush()

	fmt.Fprintln(w, "\n🎯 Kategori Dağılımı")
	writeCategoryTable(w, s.Categories, s.TotalQuestions)

	if len(s.DailyTrend) > 0 {
		fmt.Fprintln(w, "\n📈 Günlük Trend")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Tarih\tSoru")
		for _, d := range s.DailyTrend {
			fmt.Fprintf(tw, "%s\t%d\n", d.Date, d.Count)
		}
		tw.Flush()
	}
	fmt.Fprintln(w, strings.Repeat("═", 60))
}

func displayAllTime(w io.Writer, s *AllTimeStats) {
	fmt.Fprintln(w, "\n📊 Tüm Zamanlar")
	fmt.Fprintln(w, strings.Repeat("═", 60))
	if s.TotalQuestions == 0 {
		fmt.Fprintln(w, "Henüz veri yok. Sistemde hiç soru kaydı bulunmuyor.")
		return
	}

	popular := "N/A"
	if cats := sortedCategories(s.Categories); len(cats) > 0 {
		popular = cats[0].Name
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Toplam Soru:\t%d\n", s.TotalQuestions)
	fmt.Fprintf(tw, "Kategori Sayısı:\t%d\n", len(s.Categories))
	fmt.Fprintf(tw, "Aylık Ortalama:\t%d\n", monthlyAverage(s.MonthlyTrend))
	fmt.Fprintf(tw, "Aktif Ay:\t%d\n", len(s.MonthlyTrend))
	fmt.Fprintf(tw, "En Popüler Kategori:\t%s\n", popular)
	fmt.Fprintf(tw, "Veri Dönemi:\t%s - %s\n", s.FirstRecord, s.LastRecord)
	tw.Flush()

	fmt.Fprintln(w, "\n🎯 Genel Kategori Dağılımı")
	writeCategoryTable(w, s.Categories, s.TotalQuestions)

	if len(s.MonthlyTrend) > 0 {
		trend := s.MonthlyTrend
		if len(trend) > monthlyTrendWindow {
			trend = trend[len(trend)-monthlyTrendWindow:]
		}
		fmt.Fprintln(w, "\n📅 Aylık Aktivite")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Ay\tSoru")
		for _, m := range trend {
			fmt.Fprintf(tw, "%s\t%d\n", formatMonth(m.Month), m.Count)
		}
		tw.Flush()
	}
	fmt.Fprintln(w, strings.Repeat("═", 60))
}

func displayTopQuestions(w io.Writer, rows []QuestionCount) {
	fmt.Fprintln(w, "\n❓ En Çok Sorulan Sorular")
	fmt.Fprintln(w, strings.Repeat("═", 60))
	if len(rows) == 0 {
		fmt.Fprintln(w, "Henüz soru kaydı yok.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSoru\tAdet")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, utils.TruncateWidth(r.Question, maxQuestionWidth), r.Count)
	}
	tw.Flush()
}

func displayJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// resolveStatsClient applies --stats-url over env, file and default.
func resolveStatsClient() (*StatsClient, error) {
	cfg, _, err := loadRuntimeConfig()
	if err != nil {
		return nil, err
	}
	base := cfg.Stats.URL
	if strings.TrimSpace(statsURL) != "" {
		base, err = utils.NormalizeBaseURL(statsURL)
		if err != nil {
			return nil, fmt.Errorf("--stats-url: %w", err)
		}
	}
	return NewStatsClient(base), nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show question statistics from the stats backend",
	Long: `Show the kiosk's question statistics.

Examples:
  tibbi stats weekly
  tibbi stats all --json
  tibbi stats top --limit 20`,
}

var statsWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Questions asked in the last seven days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveStatsClient()
		if err != nil {
			return err
		}
		stats, err := client.Weekly(cmd.Context())
		if err != nil {
			return err
		}
		if statsOutputJSON {
			return displayJSON(cmd.OutOrStdout(), stats)
		}
		displayWeekly(cmd.OutOrStdout(), stats)
		return nil
	},
}

var statsAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Questions asked since the first record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveStatsClient()
		if err != nil {
			return err
		}
		stats, err := client.AllTime(cmd.Context())
		if err != nil {
			return err
		}
		if statsOutputJSON {
			return displayJSON(cmd.OutOrStdout(), stats)
		}
		displayAllTime(cmd.OutOrStdout(), stats)
		return nil
	},
}

var statsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Most frequently asked questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveStatsClient()
		if err != nil {
			return err
		}
		logs, err := client.Logs(cmd.Context())
		if err != nil {
			return err
		}
		rows := TopQuestions(logs, statsTopLimit)
		if statsOutputJSON {
			return displayJSON(cmd.OutOrStdout(), rows)
		}
		displayTopQuestions(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	statsCmd.PersistentFlags().StringVar(&statsURL, "stats-url", "", "Stats backend URL (default: http://localhost:5001)")
	statsCmd.PersistentFlags().BoolVar(&statsOutputJSON, "json", false, "Print the decoded payload as JSON")
	statsTopCmd.Flags().IntVar(&statsTopLimit, "limit", defaultTopLimit, "Number of questions to show")

	statsCmd.AddCommand(statsWeeklyCmd, statsAllCmd, statsTopCmd)
	rootCmd.AddCommand(statsCmd)
}
