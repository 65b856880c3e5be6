package notion

import "time"

// Filter はデータベースクエリのフィルタ式。
// Notion APIのfilterオブジェクトにそのままシリアライズされる。
type Filter map[string]any

// And はすべての条件を満たすフィルタを返す。
func And(filters ...Filter) Filter {
	return Filter{"and": filters}
}

// Or はいずれかの条件を満たすフィルタを返す。
func Or(filters ...Filter) Filter {
	return Filter{"or": filters}
}

// MultiSelectContains は複数選択プロパティが値を含む条件。
func MultiSelectContains(property, value string) Filter {
	return Filter{
		"property":     property,
		"multi_select": map[string]any{"contains": value},
	}
}

// DateNextMonth は日付プロパティが今日から1か月以内である条件。
func DateNextMonth(property string) Filter {
	return Filter{
		"property": property,
		"date":     map[string]any{"next_month": struct{}{}},
	}
}

// DatePastWeek は日付プロパティが過去1週間以内である条件。
func DatePastWeek(property string) Filter {
	return Filter{
		"property": property,
		"date":     map[string]any{"past_week": struct{}{}},
	}
}

// FormulaDateBefore は日付数式が指定時刻より前である条件。
func FormulaDateBefore(property string, t time.Time) Filter {
	return formulaDate(property, "before", t)
}

// FormulaDateOnOrBefore は日付数式が指定時刻以前である条件。
func FormulaDateOnOrBefore(property string, t time.Time) Filter {
	return formulaDate(property, "on_or_before", t)
}

// FormulaDateOnOrAfter は日付数式が指定時刻以降である条件。
func FormulaDateOnOrAfter(property string, t time.Time) Filter {
	return formulaDate(property, "on_or_after", t)
}

func formulaDate(property, op string, t time.Time) Filter {
	return Filter{
		"property": property,
		"formula": map[string]any{
			"date": map[string]any{op: t.Format(time.RFC3339)},
		},
	}
}
