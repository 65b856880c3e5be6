package notion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind はプロパティ値の種類を表す。
type Kind string

const (
	KindTitle       Kind = "title"
	KindRichText    Kind = "rich_text"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindStatus      Kind = "status"
	KindDate        Kind = "date"
	KindFormula     Kind = "formula"
	KindPeople      Kind = "people"

	// KindMissing は値が未解決、または解決に失敗したことを表す。
	KindMissing Kind = "missing"
)

// Value はプロパティ値のタグ付き共用体。
// 実装はこのパッケージ内の型に限られ、各型はその種類で有効なフィールドだけを持つ。
type Value interface {
	Kind() Kind
	sealed()
}

// Title はタイトルプロパティ。
type Title struct {
	// Text は全テキスト断片を連結したプレーンテキスト。
	Text string
}

// RichText はリッチテキストプロパティ。
type RichText struct {
	// Text は全テキスト断片を連結したプレーンテキスト。
	Text string
}

// Select は単一選択プロパティ。Nameが空の場合は未選択。
type Select struct {
	Name string
}

// MultiSelect は複数選択プロパティ。
type MultiSelect struct {
	Names []string
}

// Status はステータスプロパティ。
type Status struct {
	Name string
}

// Date は日付プロパティ。Startが空の場合は未設定。
type Date struct {
	Start string
	End   string
}

// Formula は数式プロパティ。ResultTypeに応じて有効なフィールドが決まる。
type Formula struct {
	// ResultType は数式結果の型（"date", "string", "number", "boolean"）。
	ResultType string
	Date       Date
	String     string
	Number     float64
	Boolean    bool
}

// Person はユーザー。
type Person struct {
	ID   string
	Name string
}

// People はユーザープロパティ。
type People struct {
	People []Person
}

// Unsupported はこのパッケージが解釈しない種類のプロパティ。
// 元のJSONを保持し、再シリアライズ時にそのまま出力する。
type Unsupported struct {
	Type string
	Raw  json.RawMessage
}

// Missing は値が得られなかったプロパティ。Reasonに理由を保持する。
type Missing struct {
	Reason string
}

func (Title) Kind() Kind         { return KindTitle }
func (RichText) Kind() Kind      { return KindRichText }
func (Select) Kind() Kind        { return KindSelect }
func (MultiSelect) Kind() Kind   { return KindMultiSelect }
func (Status) Kind() Kind        { return KindStatus }
func (Date) Kind() Kind          { return KindDate }
func (Formula) Kind() Kind       { return KindFormula }
func (People) Kind() Kind        { return KindPeople }
func (u Unsupported) Kind() Kind { return Kind(u.Type) }
func (Missing) Kind() Kind       { return KindMissing }

func (Title) sealed()       {}
func (RichText) sealed()    {}
func (Select) sealed()      {}
func (MultiSelect) sealed() {}
func (Status) sealed()      {}
func (Date) sealed()        {}
func (Formula) sealed()     {}
func (People) sealed()      {}
func (Unsupported) sealed() {}
func (Missing) sealed()     {}

// Property はページが持つ1つのプロパティ。IDは値の解決に使う。
type Property struct {
	ID    string
	Value Value
}

// JSON上の部品。Notion APIのページプロパティ形式に対応する。
type (
	richTextJSON struct {
		PlainText string `json:"plain_text"`
	}
	optionJSON struct {
		ID    string `json:"id,omitempty"`
		Name  string `json:"name"`
		Color string `json:"color,omitempty"`
	}
	dateJSON struct {
		Start string  `json:"start"`
		End   *string `json:"end"`
	}
	userJSON struct {
		Object string `json:"object,omitempty"`
		ID     string `json:"id"`
		Name   string `json:"name,omitempty"`
	}
	formulaJSON struct {
		Type    string    `json:"type"`
		Date    *dateJSON `json:"date,omitempty"`
		String  *string   `json:"string,omitempty"`
		Number  *float64  `json:"number,omitempty"`
		Boolean *bool     `json:"boolean,omitempty"`
	}
	missingJSON struct {
		Reason string `json:"reason"`
	}
)

// MarshalJSON はNotionのページプロパティ形式でシリアライズする。
func (p Property) MarshalJSON() ([]byte, error) {
	if u, ok := p.Value.(Unsupported); ok && len(u.Raw) > 0 {
		return u.Raw, nil
	}

	value := p.Value
	if value == nil {
		value = Missing{Reason: "値がありません"}
	}

	var payload any
	switch v := value.(type) {
	case Title:
		payload = []richTextJSON{{PlainText: v.Text}}
	case RichText:
		payload = []richTextJSON{{PlainText: v.Text}}
	case Select:
		if v.Name != "" {
			payload = optionJSON{Name: v.Name}
		}
	case Status:
		if v.Name != "" {
			payload = optionJSON{Name: v.Name}
		}
	case MultiSelect:
		opts := make([]optionJSON, 0, len(v.Names))
		for _, n := range v.Names {
			opts = append(opts, optionJSON{Name: n})
		}
		payload = opts
	case Date:
		payload = toDateJSON(v)
	case Formula:
		payload = toFormulaJSON(v)
	case People:
		users := make([]userJSON, 0, len(v.People))
		for _, u := range v.People {
			users = append(users, userJSON{Object: "user", ID: u.ID, Name: u.Name})
		}
		payload = users
	case Missing:
		payload = missingJSON{Reason: v.Reason}
	case Unsupported:
		payload = nil
	}

	out := map[string]any{"id": p.ID, "type": string(value.Kind())}
	out[string(value.Kind())] = payload
	return json.Marshal(out)
}

// UnmarshalJSON はNotionのページプロパティ形式からデシリアライズする。
// 解釈しない種類はUnsupportedとして元のJSONを保持する。
func (p *Property) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("プロパティのデシリアライズに失敗: %w", err)
	}

	value, err := decodeValue(head.Type, data, false)
	if err != nil {
		return err
	}
	p.ID = head.ID
	p.Value = value
	return nil
}

// decodeValue はtype名とJSONから値を復元する。
// itemがtrueの場合はプロパティアイテムAPIの1要素（title等が配列でなく単一オブジェクト）として扱う。
func decodeValue(typ string, data []byte, item bool) (Value, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("プロパティのデシリアライズに失敗: %w", err)
	}
	body := raw[typ]
	isNull := len(body) == 0 || string(body) == "null"

	switch Kind(typ) {
	case KindTitle, KindRichText:
		text, err := decodeText(body, item)
		if err != nil {
			return nil, err
		}
		if Kind(typ) == KindTitle {
			return Title{Text: text}, nil
		}
		return RichText{Text: text}, nil
	case KindSelect, KindStatus:
		var opt optionJSON
		if !isNull {
			if err := json.Unmarshal(body, &opt); err != nil {
				return nil, fmt.Errorf("%sプロパティのデシリアライズに失敗: %w", typ, err)
			}
		}
		if Kind(typ) == KindSelect {
			return Select{Name: opt.Name}, nil
		}
		return Status{Name: opt.Name}, nil
	case KindMultiSelect:
		var opts []optionJSON
		if !isNull {
			if err := json.Unmarshal(body, &opts); err != nil {
				return nil, fmt.Errorf("multi_selectプロパティのデシリアライズに失敗: %w", err)
			}
		}
		names := make([]string, 0, len(opts))
		for _, o := range opts {
			names = append(names, o.Name)
		}
		return MultiSelect{Names: names}, nil
	case KindDate:
		var d *dateJSON
		if !isNull {
			if err := json.Unmarshal(body, &d); err != nil {
				return nil, fmt.Errorf("dateプロパティのデシリアライズに失敗: %w", err)
			}
		}
		return fromDateJSON(d), nil
	case KindFormula:
		var f formulaJSON
		if !isNull {
			if err := json.Unmarshal(body, &f); err != nil {
				return nil, fmt.Errorf("formulaプロパティのデシリアライズに失敗: %w", err)
			}
		}
		return fromFormulaJSON(f), nil
	case KindPeople:
		people, err := decodePeople(body, item)
		if err != nil {
			return nil, err
		}
		return People{People: people}, nil
	case KindMissing:
		var m missingJSON
		if !isNull {
			if err := json.Unmarshal(body, &m); err != nil {
				return nil, fmt.Errorf("missingプロパティのデシリアライズに失敗: %w", err)
			}
		}
		return Missing{Reason: m.Reason}, nil
	default:
		return Unsupported{Type: typ, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

func decodeText(body json.RawMessage, item bool) (string, error) {
	if len(body) == 0 || string(body) == "null" {
		return "", nil
	}
	if item {
		var rt richTextJSON
		if err := json.Unmarshal(body, &rt); err != nil {
			return "", fmt.Errorf("テキストのデシリアライズに失敗: %w", err)
		}
		return rt.PlainText, nil
	}
	var parts []richTextJSON
	if err := json.Unmarshal(body, &parts); err != nil {
		return "", fmt.Errorf("テキストのデシリアライズに失敗: %w", err)
	}
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.PlainText)
	}
	return sb.String(), nil
}

func decodePeople(body json.RawMessage, item bool) ([]Person, error) {
	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}
	var users []userJSON
	if item {
		var u userJSON
		if err := json.Unmarshal(body, &u); err != nil {
			return nil, fmt.Errorf("peopleプロパティのデシリアライズに失敗: %w", err)
		}
		users = []userJSON{u}
	} else if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("peopleプロパティのデシリアライズに失敗: %w", err)
	}
	people := make([]Person, 0, len(users))
	for _, u := range users {
		people = append(people, Person{ID: u.ID, Name: u.Name})
	}
	return people, nil
}

func toDateJSON(d Date) *dateJSON {
	if d.Start == "" {
		return nil
	}
	out := &dateJSON{Start: d.Start}
	if d.End != "" {
		end := d.End
		out.End = &end
	}
	return out
}

func fromDateJSON(d *dateJSON) Date {
	if d == nil {
		return Date{}
	}
	out := Date{Start: d.Start}
	if d.End != nil {
		out.End = *d.End
	}
	return out
}

func toFormulaJSON(f Formula) formulaJSON {
	out := formulaJSON{Type: f.ResultType}
	switch f.ResultType {
	case "date":
		out.Date = toDateJSON(f.Date)
	case "string":
		s := f.String
		out.String = &s
	case "number":
		n := f.Number
		out.Number = &n
	case "boolean":
		b := f.Boolean
		out.Boolean = &b
	}
	return out
}

func fromFormulaJSON(f formulaJSON) Formula {
	out := Formula{ResultType: f.Type, Date: fromDateJSON(f.Date)}
	if f.String != nil {
		out.String = *f.String
	}
	if f.Number != nil {
		out.Number = *f.Number
	}
	if f.Boolean != nil {
		out.Boolean = *f.Boolean
	}
	return out
}
