// Package models はTodoとユーザー関連の構造体を定義します。
package models

import (
	"fmt"
	"time"
)

// TodoStatus はTodoの状態です。
type TodoStatus string

const (
	StatusTodo       TodoStatus = "todo"
	StatusBacklog    TodoStatus = "backlog"
	StatusInProgress TodoStatus = "inprogress"
	StatusDone       TodoStatus = "done"
	StatusCancelled  TodoStatus = "cancelled"
)

// Valid は定義済みの状態かどうかを返します。
func (s TodoStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusBacklog, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// 日付・時刻入力のレイアウト
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// 保存できる年の範囲 (MySQL の DATETIME と同じ)
const (
	MinYear = 1000
	MaxYear = 9999
)

// ValidDate は YYYY-MM-DD 形式で、年が MinYear から MaxYear の範囲にあるかを返します。
func ValidDate(s string) bool {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	return d.Year() >= MinYear && d.Year() <= MaxYear
}

type Todo struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Text        string     `json:"text"`
	Description string     `json:"description"`
	Status      TodoStatus `json:"status"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       time.Time  `json:"endAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TodoForm は作成・置き換え時のリクエストボディです。
// 日付と時刻は別々に受け取り、サーバー側で StartAt / EndAt に結合します。
type TodoForm struct {
	Text        string     `json:"text" binding:"required,max=255"`
	Description string     `json:"description" binding:"max=10000"`
	Status      TodoStatus `json:"status" binding:"required,oneof=todo backlog inprogress done cancelled"`
	StartDate   string     `json:"startDate" binding:"required,calendardate"`
	StartTime   string     `json:"startTime" binding:"required,datetime=15:04"`
	EndDate     string     `json:"endDate" binding:"required,calendardate"`
	EndTime     string     `json:"endTime" binding:"required,datetime=15:04"`
}

// Window は日付と時刻を loc で解釈し、開始・終了時刻(UTC)を返します。
func (f *TodoForm) Window(loc *time.Location) (start, end time.Time, err error) {
	if !ValidDate(f.StartDate) || !ValidDate(f.EndDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("date out of range %d-%d", MinYear, MaxYear)
	}
	start, err = time.ParseInLocation(DateLayout+" "+TimeLayout, f.StartDate+" "+f.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.ParseInLocation(DateLayout+" "+TimeLayout, f.EndDate+" "+f.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start.UTC(), end.UTC(), nil
}

// TodoPatch は部分更新のリクエストボディです。すべて任意項目です。
type TodoPatch struct {
	Status      *TodoStatus `json:"status" binding:"omitempty,oneof=todo backlog inprogress done cancelled"`
	Text        *string     `json:"text" binding:"omitempty,max=255"`
	Description *string     `json:"description" binding:"omitempty,max=10000"`
}

// Empty は更新対象のフィールドが無いかどうかを返します。
func (p *TodoPatch) Empty() bool {
	return p.Status == nil && p.Text == nil && p.Description == nil
}

// Apply は指定されたフィールドだけを t に反映します。
func (p *TodoPatch) Apply(t *Todo) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}
