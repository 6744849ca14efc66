package mysqlddl

import "testing"

const sampleDDL = "CREATE TABLE `orders` (\n" +
	"  `id` int unsigned NOT NULL AUTO_INCREMENT,\n" +
	"  `is_paid` tinyint(1) NOT NULL DEFAULT '0',\n" +
	"  `amount` decimal(10,2) NOT NULL,\n" +
	"  `placed_at` datetime(3) NOT NULL,\n" +
	"  PRIMARY KEY (`id`)\n" +
	") ENGINE=InnoDB AUTO_INCREMENT=1999142 DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_0900_ai_ci"

func TestParseColumnQuirks(t *testing.T) {
	quirks := ParseColumnQuirks(sampleDDL)

	id, ok := quirks["id"]
	if !ok || !id.Unsigned || !id.AutoIncrement || id.Width1Bool {
		t.Errorf("id quirks = %+v", id)
	}

	isPaid, ok := quirks["is_paid"]
	if !ok || !isPaid.Width1Bool || isPaid.Unsigned {
		t.Errorf("is_paid quirks = %+v", isPaid)
	}

	amount, ok := quirks["amount"]
	if !ok || amount.Width1Bool || amount.Unsigned {
		t.Errorf("amount quirks = %+v", amount)
	}
	if amount.FractionalDigits != -1 {
		t.Errorf("amount.FractionalDigits = %d, want -1 for a non-temporal column", amount.FractionalDigits)
	}

	placedAt, ok := quirks["placed_at"]
	if !ok || placedAt.FractionalDigits != 3 {
		t.Errorf("placed_at.FractionalDigits = %+v, want 3", placedAt)
	}
}

func TestEngineAndCharset(t *testing.T) {
	if got := Engine(sampleDDL); got != "InnoDB" {
		t.Errorf("Engine() = %q", got)
	}
	if got := Charset(sampleDDL); got != "utf8mb4" {
		t.Errorf("Charset() = %q", got)
	}
}
