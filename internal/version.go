package internal

// PackageVersion is reported in the User-Agent of every request.
const PackageVersion = "0.4.0"
