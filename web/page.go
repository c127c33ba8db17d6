package web

import "html/template"

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Servo Control</title>
</head>
<body>
    <h1>Servo Control</h1>
    <p>Duty: {{.Duty}}{{if .Busy}} (rotating){{end}}</p>
    <form action="/control" method="post">
        <label for="turns">Number of Turns:</label>
        <input type="number" id="turns" name="turns" min="1" max="10" required><br><br>
        <button type="submit" name="direction" value="cw">Clockwise</button>
        <button type="submit" name="direction" value="ccw">Counterclockwise</button>
    </form>
    <form action="/control-duty" method="post">
        <label for="duty">Set the Duty Cycle:</label>
        <input type="number" id="duty" name="duty" min="0" max="8191" required>
        <button type="submit">Set</button><br><br>
    </form>
</body>
</html>
`))

type pageData struct {
	Duty uint32
	Busy bool
}
