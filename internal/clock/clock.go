// Package clock は現在時刻とサーバー設定タイムゾーンへのアクセスを提供する。
package clock

import "time"

// Clock は現在時刻の取得とローカルタイムゾーンの参照を抽象化する。
// スロット検証は壁時計時刻の純粋関数であるため、テストでは固定時刻の
// 実装に差し替える。
type Clock interface {
	// Now は現在時刻を返す。
	Now() time.Time
	// Location はサーバー全体で使用するローカルタイムゾーンを返す。
	Location() *time.Location
}

// systemClock はOSの時計と設定済みタイムゾーンを使用するClock実装。
type systemClock struct {
	loc *time.Location
}

// NewSystem は指定タイムゾーンのシステムクロックを生成する。
func NewSystem(loc *time.Location) Clock {
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// fixedClock は固定時刻を返すClock実装。テスト用。
type fixedClock struct {
	now time.Time
	loc *time.Location
}

// NewFixed は常にnowを返すクロックを生成する。
func NewFixed(now time.Time, loc *time.Location) Clock {
	return &fixedClock{now: now, loc: loc}
}

func (c *fixedClock) Now() time.Time {
	return c.now.In(c.loc)
}

func (c *fixedClock) Location() *time.Location {
	return c.loc
}
