package vm

// Space selects the namespace a Location refers to. Constants and
// variables never share names.
type Space byte

const (
	SpaceConst Space = iota
	SpaceVar
)

func (s Space) String() string {
	if s == SpaceVar {
		return "var"
	}
	return "const"
}

type Location struct {
	Space Space
	Name  string
}

func Const(name string) Location {
	return Location{Space: SpaceConst, Name: name}
}

func Var(name string) Location {
	return Location{Space: SpaceVar, Name: name}
}

func (l Location) IsConst() bool {
	return l.Space == SpaceConst
}

func (l Location) String() string {
	return l.Name
}
