/*
Package config holds the explicit run configuration for cleanmarkers.

	            +-------------+
	            |   Config    |
	            | (Defaults)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSON    |
	|  Parser   | | Parser  | |  Parser   |
	+-----------+ +---------+ +-----------+

🔄 Flow:
1. Start from Default()
2. Decode a config file over it, when one is present (Load)
3. Apply explicitly set CLI flags
4. Validate: normalize extensions, parse the age, check marker pairs

Fields absent from a file keep their default; fields present replace it,
lists included.

🔍 Example (.cleanmarkers.yaml):

	extensions: [md, txt]
	excludes: [.git, node_modules]
	ignore: [CHANGELOG.md, "docs/drafts"]
	age: 2d
	markers:
	  - start: ".......... START .........."
	    end: ".......... END .........."
	  - start: "<response>"
	    end: "</response>"

The same in HCL:

	extensions = ["md", "txt"]
	age        = "2d"

	marker {
	  start = default_start
	  end   = default_end
	}
*/
package config
