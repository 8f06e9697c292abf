package rod

// Pages served by htmlServer in the browser tests.
const (
	articlePage = `<!DOCTYPE html>
<html>
<head><title>Release Notes</title></head>
<body>
	<nav><a href="/">Home</a></nav>
	<article>
		<h1>Go 1.24 Release Notes</h1>
		<p>Generic type aliases are now fully supported.</p>
	</article>
</body>
</html>`

	searchPage = `<!DOCTYPE html>
<html>
<body>
	<form id="search" action="/results">
		<input id="q" type="search" name="q" placeholder="Search docs" />
		<select id="section" name="section"><option>all</option></select>
		<button id="go" type="submit">Search</button>
	</form>
</body>
</html>`

	expandablePage = `<!DOCTYPE html>
<html>
<body>
	<p id="summary">Three findings.</p>
	<button id="more" aria-label="Show details">More</button>
	<div id="details" hidden></div>
	<script>
		document.getElementById('more').onclick = function () {
			var d = document.getElementById('details');
			d.textContent = 'Details expanded';
			d.hidden = false;
		};
	</script>
</body>
</html>`

	longPage = `<!DOCTYPE html>
<html>
<body style="min-height: 6000px;">
	<h2 id="intro">Introduction</h2>
	<section style="margin-top: 2500px;" id="methods">Methods</section>
	<section style="margin-top: 2500px;" id="sources">Sources</section>
</body>
</html>`
)
