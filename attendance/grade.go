package attendance

// Grade identifies one of the four collège year groups. Values are the bare
// digit used as the key of grade distributions.
type Grade string

const (
	Grade6 Grade = "6"
	Grade5 Grade = "5"
	Grade4 Grade = "4"
	Grade3 Grade = "3"
)

// Grades lists the grade levels in display order.
var Grades = []Grade{Grade6, Grade5, Grade4, Grade3}

// Label is the display name shown to the operator.
func (g Grade) Label() string {
	return string(g) + "ème"
}

func (g Grade) String() string {
	return string(g)
}
