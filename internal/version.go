package internal

// Version is the wordreel release version
const Version = "0.3.1"
