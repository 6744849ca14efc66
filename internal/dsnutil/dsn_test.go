package dsnutil

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		dsn     string
		wantErr bool
	}{
		{"h=localhost,P=1433,u=bob,p=secret,D=mydb", false},
		{"h=localhost", false},
		{"P=70000", true},
		{"P=abc", true},
		{"L=2", true},
		{"L=1", true},
		{"x=1", true},
		{"h", true},
	}
	for _, c := range cases {
		err := Validate(c.dsn)
		if (err != nil) != c.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", c.dsn, err, c.wantErr)
		}
	}
}

func TestParseAndConnectionString(t *testing.T) {
	var d Dsn
	if err := d.Parse("h=db1.internal,P=1433,u=bob,p=secret,D=mydb,A=ODBC Driver 18 for SQL Server"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Host != "db1.internal" || d.Port != 1433 || d.User != "bob" || d.Password != "secret" || d.Database != "mydb" {
		t.Fatalf("unexpected parsed fields: %+v", d)
	}
	cs := d.ConnectionString()
	for _, want := range []string{"SERVER=db1.internal;", "PORT=1433;", "UID=bob;", "PWD=secret;", "DATABASE=mydb;"} {
		if !contains(cs, want) {
			t.Errorf("connection string %q missing %q", cs, want)
		}
	}
}

func TestParseInvalidResetsNothingUseful(t *testing.T) {
	var d Dsn
	if err := d.Parse("P=bad"); err == nil {
		t.Fatal("expected error for malformed port")
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
