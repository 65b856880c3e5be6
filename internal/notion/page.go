package notion

// Page はデータベースクエリが返すページ。
// クエリ結果のプロパティ値は省略・切り詰めされている場合があり、
// 完全な値はRetrievePropertyで個別に解決する必要がある。
type Page struct {
	// ID はページの一意識別子。
	ID string `json:"id"`
	// URL はページのURL。
	URL string `json:"url"`
	// Icon はページのアイコン。未設定の場合はnil。
	Icon *Icon `json:"icon,omitempty"`
	// Parent は親（データベース等）への参照。
	Parent Parent `json:"parent"`
	// Properties はプロパティ名からプロパティへの対応。
	Properties map[string]Property `json:"properties"`
}

// Icon はページアイコン。
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// Parent はページの親。
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// PropertyCount は解決が必要なプロパティの数を返す。
func (p Page) PropertyCount() int {
	return len(p.Properties)
}

// Value は名前に対応するプロパティ値を返す。存在しない場合はnil。
func (p Page) Value(name string) Value {
	prop, ok := p.Properties[name]
	if !ok {
		return nil
	}
	return prop.Value
}

// WithProperties はプロパティを差し替えたコピーを返す。元のページは変更しない。
func (p Page) WithProperties(props map[string]Property) Page {
	p.Properties = props
	return p
}

// Emoji はアイコンが絵文字の場合にその絵文字を返す。
func (p Page) Emoji() string {
	if p.Icon == nil || p.Icon.Type != "emoji" {
		return ""
	}
	return p.Icon.Emoji
}

// Text はタイトルまたはリッチテキストのプレーンテキストを返す。
func (p Page) Text(name string) string {
	switch v := p.Value(name).(type) {
	case Title:
		return v.Text
	case RichText:
		return v.Text
	}
	return ""
}

// SelectName は単一選択プロパティの選択肢名を返す。
func (p Page) SelectName(name string) string {
	if v, ok := p.Value(name).(Select); ok {
		return v.Name
	}
	return ""
}

// MultiSelectNames は複数選択プロパティの選択肢名を順序どおりに返す。
func (p Page) MultiSelectNames(name string) []string {
	if v, ok := p.Value(name).(MultiSelect); ok {
		return v.Names
	}
	return nil
}

// StatusName はステータスプロパティの名前を返す。
func (p Page) StatusName(name string) string {
	if v, ok := p.Value(name).(Status); ok {
		return v.Name
	}
	return ""
}

// DateStart は日付プロパティ、または日付を返す数式プロパティの開始日を返す。
func (p Page) DateStart(name string) string {
	switch v := p.Value(name).(type) {
	case Date:
		return v.Start
	case Formula:
		if v.ResultType == "date" {
			return v.Date.Start
		}
	}
	return ""
}

// PeopleNames はユーザープロパティの表示名を返す。
func (p Page) PeopleNames(name string) []string {
	v, ok := p.Value(name).(People)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(v.People))
	for _, person := range v.People {
		names = append(names, person.Name)
	}
	return names
}
