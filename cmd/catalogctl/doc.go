/*
Catalogctl runs catalog operations from the command line against the same
configuration the server uses.

Usage:

	catalogctl [--config FILE] <command> [args]

Commands:

	scan                     print image paths under the upload folder
	extract FILE             print the normalized EXIF fields of one file
	build                    print the catalog table as tab separated values
	sync                     run one synchronization pass and print the inserted count
	tags add PATH TAGS       merge comma separated tags into a record
	tags remove PATH TAGS    remove tags from a record
	meta PATH "dt,make,model" replace capture time, make and model

Empty positions in the meta argument leave that field unchanged. Logging goes
to stderr and is colorized only when stderr is a terminal.
*/
package main
