package task

// Owner はタスクの所有者の指定。
// 委員会を直接指定するか、親イベントから引き継ぐかのどちらか。
type Owner struct {
	team    Committee
	inherit bool
}

// DirectTeam は委員会を直接指定する。
func DirectTeam(team Committee) Owner {
	return Owner{team: team}
}

// InheritFromParent は親イベントの委員会を引き継ぐ。
var InheritFromParent = Owner{inherit: true}

// ParseOwner はタスクのType属性から所有者を決める。
// 単一選択を優先し、空の場合は複数選択の先頭を使う。
// どちらも無い場合はfalseを返す。
func ParseOwner(selectName string, multi []string) (Owner, bool) {
	name := selectName
	if name == "" && len(multi) > 0 {
		name = multi[0]
	}
	switch Committee(name) {
	case "":
		return Owner{}, false
	case Initiative:
		return InheritFromParent, true
	default:
		return DirectTeam(Committee(name)), true
	}
}

// Inherits は親イベントから引き継ぐ指定かを返す。
func (o Owner) Inherits() bool {
	return o.inherit
}

// Resolve は実際の担当委員会を返す。引き継ぎは1段階だけで、
// 親の委員会が空またはInitiativeの場合はfalseを返す。
func (o Owner) Resolve(parent Committee) (Committee, bool) {
	if !o.inherit {
		return o.team, o.team != ""
	}
	if parent == "" || parent == Initiative {
		return "", false
	}
	return parent, true
}

// String はログ出力用の表現を返す。
func (o Owner) String() string {
	if o.inherit {
		return string(Initiative)
	}
	return string(o.team)
}
