package quoter

import "testing"

func TestBacktick(t *testing.T) {
	got := Backtick([]string{"my`db", "tbl"})
	want := "`my``db`.`tbl`"
	if got != want {
		t.Errorf("Backtick() = %q, want %q", got, want)
	}
}

func TestSplitunbacktick(t *testing.T) {
	db, tbl := Splitunbacktick("`my``db`.`tbl`", "default")
	if db != "my`db" || tbl != "tbl" {
		t.Errorf("Splitunbacktick() = (%q, %q)", db, tbl)
	}

	db, tbl = Splitunbacktick("tbl", "default")
	if db != "default" || tbl != "tbl" {
		t.Errorf("Splitunbacktick() no-db case = (%q, %q)", db, tbl)
	}
}

func TestEscapelike(t *testing.T) {
	got := Escapelike("100%_done")
	want := `'100\%\_done'`
	if got != want {
		t.Errorf("Escapelike() = %q, want %q", got, want)
	}
}
