// Package schedule は営業時間・30分スロットのカレンダー計算と検証を提供する。
// すべての判定はローカル壁時計時刻の関数であり、ストレージには依存しない。
package schedule

import (
	"time"

	"github.com/hitoshi/yoyaku/internal/clock"
	"github.com/hitoshi/yoyaku/internal/model"
)

// 営業パラメータ（固定）
const (
	// BusinessStartHour は営業開始時刻（ローカル9時）。
	BusinessStartHour = 9
	// BusinessEndHour は営業終了時刻（ローカル17時）。17:00ちょうどは予約可能。
	BusinessEndHour = 17
	// SlotInterval はスロット間隔。
	SlotInterval = 30 * time.Minute
	// SlotsPerDay は1営業日あたりのスロット数（9:00〜17:00の30分刻み、両端含む）。
	SlotsPerDay = 17
	// WeekdaysPerWeek は1週あたりの営業日数（月〜金）。
	WeekdaysPerWeek = 5
)

// Calendar は週範囲の計算・スロット列挙・スロット検証を行う。
type Calendar struct {
	clk clock.Clock
}

// NewCalendar はCalendarを生成する。
func NewCalendar(clk clock.Clock) *Calendar {
	return &Calendar{clk: clk}
}

// CurrentWeekRange は現在の営業週の開始・終了日時を返す。
// 開始は今週月曜のローカル9:00、終了は翌土曜のローカル0:00（排他的上限）。
func (c *Calendar) CurrentWeekRange() (time.Time, time.Time) {
	now := c.clk.Now().In(c.clk.Location())
	return c.weekRangeFrom(now, 0)
}

// WeekRange は現在週からoffset週ずらした週の開始・終了日時を返す。
// 終了日時は開始日の5日後のローカル0:00として再計算するため、
// 対象週に夏時間の切り替えがあっても正しい境界になる。
func (c *Calendar) WeekRange(offset int) (time.Time, time.Time) {
	now := c.clk.Now().In(c.clk.Location())
	return c.weekRangeFrom(now, offset)
}

// weekRangeFrom はnowの属する週をoffset週ずらした範囲を計算する。
func (c *Calendar) weekRangeFrom(now time.Time, offset int) (time.Time, time.Time) {
	loc := c.clk.Location()

	// 月曜始まりの曜日オフセット（Mon=0 .. Sun=6）
	weekday := (int(now.Weekday()) + 6) % 7
	year, month, day := now.Date()

	// カレンダー演算で週初を求めることでDST切り替えに影響されない
	monday := time.Date(year, month, day, 0, 0, 0, 0, loc).AddDate(0, 0, -weekday+7*offset)
	start := time.Date(monday.Year(), monday.Month(), monday.Day(), BusinessStartHour, 0, 0, 0, loc)

	endDay := monday.AddDate(0, 0, WeekdaysPerWeek)
	end := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 0, 0, 0, 0, loc)

	return start, end
}

// Slots はweekStartの属する営業週の全スロットを昇順で返す。
// 月〜金の各日について9:00から17:00まで（両端含む）30分刻みで列挙する。
func (c *Calendar) Slots(weekStart time.Time) []time.Time {
	loc := c.clk.Location()
	local := weekStart.In(loc)

	slots := make([]time.Time, 0, WeekdaysPerWeek*SlotsPerDay)
	for day := 0; day < WeekdaysPerWeek; day++ {
		d := local.AddDate(0, 0, day)
		for i := 0; i < SlotsPerDay; i++ {
			hour := BusinessStartHour + i/2
			minute := (i % 2) * 30
			slots = append(slots, time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc))
		}
	}
	return slots
}

// FutureSlots は現在週からweeksAhead週分のスロットを連結して返す。
func (c *Calendar) FutureSlots(weeksAhead int) []time.Time {
	var slots []time.Time
	for offset := 0; offset < weeksAhead; offset++ {
		start, _ := c.WeekRange(offset)
		slots = append(slots, c.Slots(start)...)
	}
	return slots
}

// ValidateSlot は指定日時が予約可能なスロットであることを検証する。
// 検証は以下の順で行い、最初に失敗した1件のみを返す:
// 過去日時 → 営業日外 → 30分境界外 → 営業時間外。
func (c *Calendar) ValidateSlot(slot time.Time) error {
	if slot.Before(c.clk.Now()) {
		return model.NewPastSlotError()
	}

	local := slot.In(c.clk.Location())

	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return model.NewNonBusinessDayError()
	}

	if m := local.Minute(); m != 0 && m != 30 {
		return model.NewMisalignedSlotError()
	}

	h := local.Hour()
	if h < BusinessStartHour || h > BusinessEndHour {
		return model.NewOutsideHoursError()
	}
	if h == BusinessEndHour && local.Minute() != 0 {
		return model.NewOutsideHoursError()
	}

	return nil
}

// startTimeLayouts はParseStartTimeが受け付けるISO-8601のバリエーション。
// オフセット付きを先に試し、オフセットなし（naive）はローカルタイムゾーンで解釈する。
var startTimeLayouts = []struct {
	layout string
	naive  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04Z07:00", false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05.999999999Z07:00", false},
	{"2006-01-02 15:04:05.999999999", true},
	{"2006-01-02 15:04", true},
}

// ParseStartTime はISO-8601形式の日時文字列をパースする。
// タイムゾーンオフセットを持たない値はUTCではなくサーバー設定の
// ローカルタイムゾーンで解釈する。パース不能な場合はMalformedTimestampを返す。
func (c *Calendar) ParseStartTime(text string) (time.Time, error) {
	loc := c.clk.Location()
	for _, l := range startTimeLayouts {
		var t time.Time
		var err error
		if l.naive {
			t, err = time.ParseInLocation(l.layout, text, loc)
		} else {
			t, err = time.Parse(l.layout, text)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.NewMalformedTimestampError()
}
